package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/glowderm/internal/metrics"
	"github.com/hitoshi/glowderm/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	ClientIDConfig    middleware.ClientIDConfig
	RateLimiter       *middleware.RateLimiter

	// 監視
	HealthChecker HealthChecker
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer

	// ストアフロント
	Catalog         CatalogReader
	Carts           CartManager
	Sessions        SessionFactory
	CheckoutService CheckoutServiceInterface
	ContactService  ContactServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Tracing → Logging → SecurityHeaders → CORS → Metrics
//	  → ClientID → RateLimit(General) → CSRF
//
// /health と /metrics はクライアントIDを必要としないため、ClientID以降の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewTracingMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(metrics.NewHTTPStatusMiddleware(collector))

	catalogHandler := NewCatalogHandler(deps.Catalog)
	cartHandler := NewCartHandler(deps.Carts, deps.Catalog)
	checkoutHandler := NewCheckoutHandler(deps.Carts, deps.CheckoutService)
	authHandler := NewAuthHandler(deps.Sessions)
	contactHandler := NewContactHandler(deps.ContactService)

	// --- クライアントID不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- ストアフロントのルート ---
	// ミドルウェアスタック: ClientID → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewClientIDMiddleware(deps.ClientIDConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// 商品カタログ
		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", catalogHandler.ListProducts)
			r.Get("/featured", catalogHandler.Featured)
			r.Get("/{id}", catalogHandler.GetProduct)
			r.Get("/{id}/related", catalogHandler.Related)
		})
		r.Get("/api/taxonomy", catalogHandler.Taxonomy)

		// カート
		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Put("/open", cartHandler.SetOpen)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		// チェックアウト
		r.Get("/api/checkout/quote", checkoutHandler.Quote)
		r.Post("/api/checkout", checkoutHandler.PlaceOrder)

		// 認証（サインアップ・ログインは専用レート制限を追加）
		r.Route("/auth", func(r chi.Router) {
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/signup", authHandler.Signup)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		// お問い合わせ・フィードバック
		r.Post("/api/contact", contactHandler.SubmitContact)
		r.Post("/api/feedback", contactHandler.SubmitFeedback)
	})

	return r
}
