package model

import "github.com/shopspring/decimal"

// CartLine はカート内の1商品と数量の組を表す。
// Productは参照用のスナップショットで、カートが所有するものではない。
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal は単価×数量を返す。
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart はカートの永続化単位。
// Linesは最初に追加された順序を保持する。
type Cart struct {
	Lines  []CartLine `json:"lines"`
	IsOpen bool       `json:"is_open"`
}

// TotalItems は全行の数量の合計を返す。
func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice は全行の単価×数量の合計を返す。
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// IndexOf は指定商品IDの行インデックスを返す。存在しない場合は-1。
func (c *Cart) IndexOf(productID string) int {
	for i, l := range c.Lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}
