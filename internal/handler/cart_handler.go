package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/glowderm/internal/cart"
	"github.com/hitoshi/glowderm/internal/checkout"
	"github.com/hitoshi/glowderm/internal/model"
)

// CartManager はクライアントごとのカートへの排他アクセスを提供する。
type CartManager interface {
	WithCart(ctx context.Context, clientID string, fn func(*cart.Store) error) error
}

// ProductFinder はカートに追加する商品をカタログから引く。
type ProductFinder interface {
	FindByID(id string) (model.Product, error)
}

// CartHandler はカート操作のHTTPハンドラー。
type CartHandler struct {
	carts    CartManager
	products ProductFinder
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(carts CartManager, products ProductFinder) *CartHandler {
	return &CartHandler{carts: carts, products: products}
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type setCartOpenRequest struct {
	Open bool `json:"open"`
}

// GetCart は現在のカートと合計・見積もりを返す。
// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, s *cart.Store) error { return nil })
}

// AddItem は商品をカートに追加する。数量省略時は1。
// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	if req.ProductID == "" {
		handleServiceError(w, model.NewInvalidRequestError("product_id is required"))
		return
	}

	product, err := h.products.FindByID(req.ProductID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.mutate(w, r, func(ctx context.Context, s *cart.Store) error {
		return s.AddToCart(ctx, product, req.Quantity)
	})
}

// UpdateItem は明細の数量を置き換える。0以下なら明細を削除する。
// PUT /api/cart/items/{productID}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	productID := chi.URLParam(r, "productID")

	h.mutate(w, r, func(ctx context.Context, s *cart.Store) error {
		return s.UpdateQuantity(ctx, productID, req.Quantity)
	})
}

// RemoveItem は明細を削除する。
// DELETE /api/cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	h.mutate(w, r, func(ctx context.Context, s *cart.Store) error {
		return s.RemoveFromCart(ctx, productID)
	})
}

// ClearCart はカートを空にする。
// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ctx context.Context, s *cart.Store) error {
		return s.ClearCart(ctx)
	})
}

// SetOpen はカート表示フラグを設定する。
// PUT /api/cart/open
func (h *CartHandler) SetOpen(w http.ResponseWriter, r *http.Request) {
	var req setCartOpenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	h.mutate(w, r, func(ctx context.Context, s *cart.Store) error {
		return s.SetCartOpen(ctx, req.Open)
	})
}

// mutate はクライアントのカートに対してfnを実行し、結果のカートを返す。
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context, *cart.Store) error) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}

	var snapshot model.Cart
	err := h.carts.WithCart(r.Context(), id, func(s *cart.Store) error {
		if err := fn(r.Context(), s); err != nil {
			return err
		}
		snapshot = s.Snapshot()
		return nil
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(snapshot, checkout.Quote(snapshot.TotalPrice())))
}
