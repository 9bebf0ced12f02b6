package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/glowderm/internal/cart"
	"github.com/hitoshi/glowderm/internal/model"
	"github.com/hitoshi/glowderm/internal/validation"
)

// CheckoutServiceInterface はチェックアウトハンドラーが必要とするサービスインターフェース。
type CheckoutServiceInterface interface {
	QuoteCart(store *cart.Store) model.Quote
	PlaceOrder(ctx context.Context, store *cart.Store, form *validation.CheckoutForm) (*model.Order, error)
}

// CheckoutHandler は見積もりと注文確定のHTTPハンドラー。
type CheckoutHandler struct {
	carts   CartManager
	service CheckoutServiceInterface
}

// NewCheckoutHandler はCheckoutHandlerを生成する。
func NewCheckoutHandler(carts CartManager, service CheckoutServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, service: service}
}

// Quote は現在のカートに対する送料・税額・合計を返す。
// GET /api/checkout/quote
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}

	var quote model.Quote
	err := h.carts.WithCart(r.Context(), id, func(s *cart.Store) error {
		quote = h.service.QuoteCart(s)
		return nil
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuoteResponse(quote))
}

// PlaceOrder は配送先を検証し、カートの内容で注文を確定する。
// POST /api/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := clientID(w, r)
	if !ok {
		return
	}

	var form validation.CheckoutForm
	if err := decodeJSON(w, r, &form); err != nil {
		handleServiceError(w, err)
		return
	}

	var order *model.Order
	err := h.carts.WithCart(r.Context(), id, func(s *cart.Store) error {
		var err error
		order, err = h.service.PlaceOrder(r.Context(), s, &form)
		return err
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}
