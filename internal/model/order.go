package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingDetails はチェックアウトフォームの配送先情報。
type ShippingDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	City      string `json:"city"`
	ZipCode   string `json:"zip_code"`
}

// Quote は小計から算出した送料・税額・合計。
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`

	// FreeShippingRemaining は送料無料までの不足額。送料無料の場合はゼロ。
	FreeShippingRemaining decimal.Decimal `json:"free_shipping_remaining"`
}

// Order は確定した注文を表す。
type Order struct {
	ID       string          `json:"id"`
	Shipping ShippingDetails `json:"shipping"`
	Lines    []CartLine      `json:"lines"`
	Quote    Quote           `json:"quote"`
	PlacedAt time.Time       `json:"placed_at"`
}
