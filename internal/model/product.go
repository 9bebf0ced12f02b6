package model

import "github.com/shopspring/decimal"

// Product はカタログ上の商品を表す。
// カタログ読み込み後は不変として扱う。
type Product struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Price            decimal.Decimal  `json:"price"`
	OriginalPrice    *decimal.Decimal `json:"original_price,omitempty"`
	Category         string           `json:"category"`
	SkinTypes        []string         `json:"skin_types"`
	Concerns         []string         `json:"concerns"`
	Rating           float64          `json:"rating"`
	ReviewCount      int              `json:"review_count"`
	ShortDescription string           `json:"short_description"`
	Description      string           `json:"description"`
	Ingredients      string           `json:"ingredients,omitempty"`
	Usage            string           `json:"usage,omitempty"`
	Images           []string         `json:"images,omitempty"`
	Bestseller       bool             `json:"bestseller"`
	Featured         bool             `json:"featured"`
}

// OnSale は定価が設定されている（セール中の）商品かを返す。
func (p *Product) OnSale() bool {
	return p.OriginalPrice != nil
}

// Category はカタログのカテゴリを表す。
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Taxonomy はカテゴリ・肌タイプ・肌悩みの一覧。
type Taxonomy struct {
	Categories []Category `json:"categories"`
	SkinTypes  []string   `json:"skin_types"`
	Concerns   []string   `json:"concerns"`
}
