package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/glowderm/internal/cart"
	"github.com/hitoshi/glowderm/internal/events"
	"github.com/hitoshi/glowderm/internal/metrics"
	"github.com/hitoshi/glowderm/internal/model"
	"github.com/hitoshi/glowderm/internal/tracing"
	"github.com/hitoshi/glowderm/internal/validation"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultDelay は注文送信の既定の待機時間。
const DefaultDelay = time.Second

// ServiceConfig はチェックアウトサービスの設定。
type ServiceConfig struct {
	Delay time.Duration
	// PublishTimeout はイベント送信待ちの上限。0ならevents.DefaultPublishTimeout。
	PublishTimeout time.Duration
}

// Service は注文確定のビジネスロジックを提供する。
type Service struct {
	config    ServiceConfig
	publisher events.Publisher
	metrics   metrics.MetricsCollector
	validator *validation.Validator
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(config ServiceConfig, publisher events.Publisher, m metrics.MetricsCollector) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Service{
		config:    config,
		publisher: publisher,
		metrics:   m,
		validator: validation.New(),
		now:       time.Now,
	}
}

// QuoteCart は現在のカートに対する見積もりを返す。
func (s *Service) QuoteCart(store *cart.Store) model.Quote {
	return Quote(store.TotalPrice())
}

// PlaceOrder は配送先を検証し、カートの内容で注文を確定する。
// 成功した場合はカートを空にする。
func (s *Service) PlaceOrder(ctx context.Context, store *cart.Store, form *validation.CheckoutForm) (*model.Order, error) {
	ctx, span := tracing.Tracer().Start(ctx, "checkout.PlaceOrder")
	defer span.End()

	if err := s.validator.Validate(form); err != nil {
		s.metrics.RecordValidationFailure(form.FormName())
		return nil, err
	}

	lines := store.Lines()
	if len(lines) == 0 {
		return nil, model.NewEmptyCartError()
	}

	timer := time.NewTimer(s.config.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	now := s.now()
	order := &model.Order{
		ID:       NewOrderID(now),
		Shipping: form.Details(),
		Lines:    lines,
		Quote:    Quote(store.TotalPrice()),
		PlacedAt: now,
	}

	if err := store.ClearCart(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear cart after order %s: %w", order.ID, err)
	}

	s.metrics.RecordOrderPlaced(order.Quote.Total)
	events.PublishBestEffort(ctx, s.publisher, events.Event{
		Type:       events.TypeOrderPlaced,
		Key:        order.ID,
		Payload:    order,
		OccurredAt: now,
	}, s.config.PublishTimeout)

	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.total", order.Quote.Total.StringFixed(2)),
	)
	slog.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.Int("items", len(order.Lines)),
		slog.String("total", order.Quote.Total.StringFixed(2)),
	)
	return order, nil
}
