package handler

import (
	"time"

	"github.com/hitoshi/glowderm/internal/model"
	"github.com/shopspring/decimal"
)

// 金額は小数点以下2桁の文字列で返す。

type productResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Price            string   `json:"price"`
	OriginalPrice    *string  `json:"original_price,omitempty"`
	OnSale           bool     `json:"on_sale"`
	Category         string   `json:"category"`
	SkinTypes        []string `json:"skin_types"`
	Concerns         []string `json:"concerns"`
	Rating           float64  `json:"rating"`
	ReviewCount      int      `json:"review_count"`
	ShortDescription string   `json:"short_description"`
	Description      string   `json:"description"`
	Ingredients      string   `json:"ingredients,omitempty"`
	Usage            string   `json:"usage,omitempty"`
	Images           []string `json:"images,omitempty"`
	Bestseller       bool     `json:"bestseller"`
	Featured         bool     `json:"featured"`
}

type cartLineResponse struct {
	Product   productResponse `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal string          `json:"line_total"`
}

type quoteResponse struct {
	Subtotal              string `json:"subtotal"`
	Shipping              string `json:"shipping"`
	Tax                   string `json:"tax"`
	Total                 string `json:"total"`
	FreeShippingRemaining string `json:"free_shipping_remaining"`
}

type cartResponse struct {
	Lines      []cartLineResponse `json:"lines"`
	TotalItems int                `json:"total_items"`
	TotalPrice string             `json:"total_price"`
	IsOpen     bool               `json:"is_open"`
	Quote      quoteResponse      `json:"quote"`
}

type orderResponse struct {
	ID       string                `json:"id"`
	Shipping model.ShippingDetails `json:"shipping"`
	Lines    []cartLineResponse    `json:"lines"`
	Quote    quoteResponse         `json:"quote"`
	PlacedAt time.Time             `json:"placed_at"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sessionResponse struct {
	State string        `json:"state"`
	User  *userResponse `json:"user,omitempty"`
}

type contactResponse struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type feedbackResponse struct {
	ID          string    `json:"id"`
	Rating      int       `json:"rating"`
	RatingLabel string    `json:"rating_label"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toProductResponse(p model.Product) productResponse {
	resp := productResponse{
		ID:               p.ID,
		Name:             p.Name,
		Price:            money(p.Price),
		OnSale:           p.OnSale(),
		Category:         p.Category,
		SkinTypes:        p.SkinTypes,
		Concerns:         p.Concerns,
		Rating:           p.Rating,
		ReviewCount:      p.ReviewCount,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Ingredients:      p.Ingredients,
		Usage:            p.Usage,
		Images:           p.Images,
		Bestseller:       p.Bestseller,
		Featured:         p.Featured,
	}
	if p.OriginalPrice != nil {
		s := money(*p.OriginalPrice)
		resp.OriginalPrice = &s
	}
	return resp
}

func toProductResponses(products []model.Product) []productResponse {
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	return resp
}

func toCartLineResponses(lines []model.CartLine) []cartLineResponse {
	resp := make([]cartLineResponse, 0, len(lines))
	for _, l := range lines {
		resp = append(resp, cartLineResponse{
			Product:   toProductResponse(l.Product),
			Quantity:  l.Quantity,
			LineTotal: money(l.LineTotal()),
		})
	}
	return resp
}

func toQuoteResponse(q model.Quote) quoteResponse {
	return quoteResponse{
		Subtotal:              money(q.Subtotal),
		Shipping:              money(q.Shipping),
		Tax:                   money(q.Tax),
		Total:                 money(q.Total),
		FreeShippingRemaining: money(q.FreeShippingRemaining),
	}
}

func toCartResponse(c model.Cart, q model.Quote) cartResponse {
	return cartResponse{
		Lines:      toCartLineResponses(c.Lines),
		TotalItems: c.TotalItems(),
		TotalPrice: money(c.TotalPrice()),
		IsOpen:     c.IsOpen,
		Quote:      toQuoteResponse(q),
	}
}

func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:       o.ID,
		Shipping: o.Shipping,
		Lines:    toCartLineResponses(o.Lines),
		Quote:    toQuoteResponse(o.Quote),
		PlacedAt: o.PlacedAt,
	}
}

func toUserResponse(u *model.PublicUser) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}
