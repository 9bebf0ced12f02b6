// Package catalog は読み取り専用の商品カタログを提供する。
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hitoshi/glowderm/internal/model"
)

// 一覧系クエリの既定件数。
const (
	DefaultFeaturedLimit = 4
	DefaultRelatedLimit  = 4
)

//go:embed data/catalog.json
var embeddedCatalog []byte

// catalogFile はカタログJSONファイルの形式。
type catalogFile struct {
	Categories []model.Category `json:"categories"`
	SkinTypes  []string         `json:"skin_types"`
	Concerns   []string         `json:"concerns"`
	Products   []model.Product  `json:"products"`
}

// Filter は商品一覧の絞り込み条件。空文字列の条件は無視する。
type Filter struct {
	Category string // 大文字小文字を区別せずに比較する
	SkinType string // 完全一致
	Concern  string // 完全一致
}

// Catalog は起動時に一度だけ読み込まれる商品カタログ。
// 読み込み後は変更されないため、並行に参照してよい。
type Catalog struct {
	products []model.Product
	byID     map[string]int
	taxonomy model.Taxonomy
}

// LoadEmbedded は組み込みのカタログを読み込む。
func LoadEmbedded() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// LoadFile は指定パスのJSONファイルからカタログを読み込む。
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse はカタログJSONを解析し、商品IDの一意性と価格が正であることを検証する。
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	c := &Catalog{
		products: f.Products,
		byID:     make(map[string]int, len(f.Products)),
		taxonomy: model.Taxonomy{
			Categories: f.Categories,
			SkinTypes:  f.SkinTypes,
			Concerns:   f.Concerns,
		},
	}

	for i, p := range f.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("product at index %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if !p.Price.IsPositive() {
			return nil, fmt.Errorf("product %q has non-positive price %s", p.ID, p.Price)
		}
		c.byID[p.ID] = i
	}

	return c, nil
}

// All は全商品をカタログ順で返す。
func (c *Catalog) All() []model.Product {
	out := make([]model.Product, len(c.products))
	copy(out, c.products)
	return out
}

// FindByID は商品を検索する。存在しない場合はPRODUCT_NOT_FOUNDを返す。
func (c *Catalog) FindByID(id string) (model.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Product{}, model.NewProductNotFoundError(id)
	}
	return c.products[i], nil
}

// Filter は条件に一致する商品をカタログ順で返す。
func (c *Catalog) Filter(f Filter) []model.Product {
	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.SkinType != "" && !contains(p.SkinTypes, f.SkinType) {
			continue
		}
		if f.Concern != "" && !contains(p.Concerns, f.Concern) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Featured はおすすめ商品を先頭からlimit件返す。limitが0以下なら既定件数。
func (c *Catalog) Featured(limit int) []model.Product {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	out := make([]model.Product, 0, limit)
	for _, p := range c.products {
		if len(out) == limit {
			break
		}
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Related は同じカテゴリの他の商品をlimit件まで返す。
func (c *Catalog) Related(product model.Product, limit int) []model.Product {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	out := make([]model.Product, 0, limit)
	for _, p := range c.products {
		if len(out) == limit {
			break
		}
		if p.Category == product.Category && p.ID != product.ID {
			out = append(out, p)
		}
	}
	return out
}

// Taxonomy はカテゴリ・肌タイプ・肌悩みの一覧を返す。
func (c *Catalog) Taxonomy() model.Taxonomy {
	return c.taxonomy
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
