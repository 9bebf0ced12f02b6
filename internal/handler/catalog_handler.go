package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/glowderm/internal/catalog"
	"github.com/hitoshi/glowderm/internal/model"
)

// DefaultListLimit はおすすめ商品・関連商品の既定の件数。
const DefaultListLimit = 4

// CatalogReader はカタログハンドラーが必要とする読み取り専用インターフェース。
type CatalogReader interface {
	FindByID(id string) (model.Product, error)
	Filter(f catalog.Filter) []model.Product
	Featured(limit int) []model.Product
	Related(product model.Product, limit int) []model.Product
	Taxonomy() model.Taxonomy
}

// CatalogHandler は商品カタログのHTTPハンドラー。
type CatalogHandler struct {
	catalog CatalogReader
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(c CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// ListProducts は絞り込み条件に合う商品一覧を返す。
// GET /api/products?category=&skinType=&concern=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := h.catalog.Filter(catalog.Filter{
		Category: q.Get("category"),
		SkinType: q.Get("skinType"),
		Concern:  q.Get("concern"),
	})
	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// Featured はおすすめ商品を返す。
// GET /api/products/featured
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.Featured(queryLimit(r, DefaultListLimit))
	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// GetProduct は商品詳細を返す。
// GET /api/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.FindByID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Related は同じカテゴリの関連商品を返す。
// GET /api/products/{id}/related
func (h *CatalogHandler) Related(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.FindByID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(h.catalog.Related(product, queryLimit(r, DefaultListLimit))))
}

// Taxonomy はカテゴリ・肌タイプ・肌悩みの一覧を返す。
// GET /api/taxonomy
func (h *CatalogHandler) Taxonomy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Taxonomy())
}
