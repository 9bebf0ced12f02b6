// Package checkout は注文金額の算出と注文確定を提供する。
package checkout

import (
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/glowderm/internal/model"
	"github.com/shopspring/decimal"
)

var (
	// FreeShippingThreshold を超える小計は送料無料。
	FreeShippingThreshold = decimal.NewFromInt(50)
	// FlatShippingRate は送料無料にならない場合の送料。
	FlatShippingRate = decimal.RequireFromString("5.99")
	// TaxRate は小計に対する税率。
	TaxRate = decimal.RequireFromString("0.08")
)

// Quote は小計から送料・税額・合計を算出する。
// 税額は丸めずに保持し、表示時に小数2桁へ丸める。
func Quote(subtotal decimal.Decimal) model.Quote {
	shipping := FlatShippingRate
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	remaining := decimal.Zero
	if subtotal.LessThan(FreeShippingThreshold) {
		remaining = FreeShippingThreshold.Sub(subtotal)
	}

	tax := subtotal.Mul(TaxRate)
	return model.Quote{
		Subtotal:              subtotal,
		Shipping:              shipping,
		Tax:                   tax,
		Total:                 subtotal.Add(shipping).Add(tax),
		FreeShippingRemaining: remaining,
	}
}

// NewOrderID は時刻から注文IDを生成する。
// 形式は "GD-" にUnixミリ秒の36進数表記（大文字）を続けたもの。
func NewOrderID(now time.Time) string {
	return "GD-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
}
