package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/glowderm/internal/auth"
	"github.com/hitoshi/glowderm/internal/cart"
	"github.com/hitoshi/glowderm/internal/catalog"
	"github.com/hitoshi/glowderm/internal/checkout"
	"github.com/hitoshi/glowderm/internal/config"
	"github.com/hitoshi/glowderm/internal/contact"
	"github.com/hitoshi/glowderm/internal/database"
	"github.com/hitoshi/glowderm/internal/events"
	"github.com/hitoshi/glowderm/internal/handler"
	"github.com/hitoshi/glowderm/internal/metrics"
	"github.com/hitoshi/glowderm/internal/middleware"
	"github.com/hitoshi/glowderm/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// redisReadyAttempts はRedis起動待ちの最大試行回数。
const redisReadyAttempts = 5

// server はHTTPハンドラーと、停止時に閉じるべきリソースをまとめたもの。
type server struct {
	Handler http.Handler
	closers []func()
}

// Close は確保したリソースを逆順に解放する。
func (s *server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// newServer は設定に従って全依存関係をワイヤリングし、ルーターを構築する。
func newServer(ctx context.Context, cfg *config.Config) (_ *server, err error) {
	s := &server{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	// 1. 永続化媒体
	kv, closeKV, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, closeKV)

	// 2. 商品カタログ
	cat, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	// 3. イベント発行
	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, closePublisher)

	// 4. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 5. ドメインサービス
	carts := cart.NewManager(kv, cart.WithMetrics(collector))
	sessions := auth.NewFactory(kv, auth.ServiceConfig{Delay: cfg.AuthDelay}, auth.WithMetrics(collector))
	checkoutService := checkout.NewService(checkout.ServiceConfig{Delay: cfg.SubmitDelay, PublishTimeout: cfg.PublishTimeout}, publisher, collector)
	contactService := contact.NewService(contact.ServiceConfig{Delay: cfg.SubmitDelay, PublishTimeout: cfg.PublishTimeout}, publisher, collector)

	// 6. ルーター
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth))
	s.closers = append(s.closers, rateLimiter.Stop)

	s.Handler = handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		ClientIDConfig: middleware.ClientIDConfig{
			MaxAge: cfg.ClientIDMaxAge,
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		},
		RateLimiter:     rateLimiter,
		HealthChecker:   kv,
		Metrics:         collector,
		Gatherer:        reg,
		Catalog:         cat,
		Carts:           carts,
		Sessions:        sessions,
		CheckoutService: checkoutService,
		ContactService:  contactService,
	})

	return s, nil
}

// openStore はSTORE_BACKENDに応じたKVStoreを開く。
func openStore(ctx context.Context, cfg *config.Config) (repository.KVStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool := database.DefaultPool
		pool.MaxOpenConns = cfg.DBMaxOpenConns
		pool.MaxIdleConns = cfg.DBMaxIdleConns
		db, err := database.OpenPool(cfg.DatabaseURL, pool)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")
		return repository.NewPostgresKVStore(db), closeDB(db), nil

	case config.BackendRedis:
		store := repository.NewRedisKVStore(cfg.RedisAddr)
		if err := store.WaitReady(ctx, redisReadyAttempts); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store, func() { _ = store.Close() }, nil

	default:
		slog.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryKVStore(), func() {}, nil
	}
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			slog.Warn("failed to close database", slog.String("error", err.Error()))
		}
	}
}

// loadCatalog はCATALOG_FILEが指定されていればそのファイルを、なければ組み込みカタログを読み込む。
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		cat, err := catalog.LoadEmbedded()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded catalog: %w", err)
		}
		return cat, nil
	}

	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	slog.Info("catalog loaded", slog.String("path", path), slog.Int("products", len(cat.All())))
	return cat, nil
}

// newPublisher はKAFKA_BROKERSが設定されていればKafkaPublisherを、なければLogPublisherを返す。
func newPublisher(cfg *config.Config) (events.Publisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewLogPublisher(slog.Default()), func() {}, nil
	}

	cl, err := events.NewKafkaClient(cfg.KafkaBrokers, serviceName, cfg.PublishTimeout)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("kafka publisher enabled",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("topic_prefix", cfg.KafkaTopicPrefix),
	)
	publisher := events.NewKafkaPublisher(cl, cfg.KafkaTopicPrefix)
	return publisher, publisher.Close, nil
}
