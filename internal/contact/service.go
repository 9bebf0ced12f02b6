// Package contact はお問い合わせ・フィードバックフォームの送信処理を提供する。
package contact

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/glowderm/internal/events"
	"github.com/hitoshi/glowderm/internal/metrics"
	"github.com/hitoshi/glowderm/internal/model"
	"github.com/hitoshi/glowderm/internal/security"
	"github.com/hitoshi/glowderm/internal/tracing"
	"github.com/hitoshi/glowderm/internal/validation"
)

// DefaultDelay は送信処理の既定の待機時間。
const DefaultDelay = time.Second

// 送信種別。メトリクスとイベントのペイロードで使用する。
const (
	KindContact  = "contact"
	KindFeedback = "feedback"
)

// ServiceConfig はフォーム送信サービスの設定。
type ServiceConfig struct {
	Delay time.Duration
	// PublishTimeout はイベント送信待ちの上限。0ならevents.DefaultPublishTimeout。
	PublishTimeout time.Duration
}

// Service はフォームを検証・整形し、送信イベントを発行する。
type Service struct {
	config    ServiceConfig
	publisher events.Publisher
	metrics   metrics.MetricsCollector
	sanitizer security.TextSanitizer
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
		sanitizer: security.NewTextSanitizer(),
		validator: validation.New(),
		now:       time.Now,
	}
}

// messageEnvelope はmessage.submittedイベントのペイロード。
type messageEnvelope struct {
	Kind     string                `json:"kind"`
	Contact  *model.ContactMessage `json:"contact,omitempty"`
	Feedback *model.Feedback       `json:"feedback,omitempty"`
}

// SubmitContact はお問い合わせを検証して送信する。
func (s *Service) SubmitContact(ctx context.Context, form *validation.ContactForm) (*model.ContactMessage, error) {
	ctx, span := tracing.Tracer().Start(ctx, "contact.SubmitContact")
	defer span.End()

	if err := s.validator.Validate(form); err != nil {
		s.metrics.RecordValidationFailure(form.FormName())
		return nil, err
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	msg := &model.ContactMessage{
		ID:          uuid.New().String(),
		Name:        s.sanitizer.Sanitize(form.Name),
		Email:       form.Email,
		Subject:     s.sanitizer.Sanitize(form.Subject),
		Message:     s.sanitizer.Sanitize(form.Message),
		SubmittedAt: s.now(),
	}

	s.metrics.RecordMessageSubmitted(KindContact)
	events.PublishBestEffort(ctx, s.publisher, events.Event{
		Type:       events.TypeMessageSubmitted,
		Key:        msg.ID,
		Payload:    messageEnvelope{Kind: KindContact, Contact: msg},
		OccurredAt: msg.SubmittedAt,
	}, s.config.PublishTimeout)
	slog.InfoContext(ctx, "contact message submitted", slog.String("message_id", msg.ID))
	return msg, nil
}

// SubmitFeedback はフィードバックを検証して送信する。
func (s *Service) SubmitFeedback(ctx context.Context, form *validation.FeedbackForm) (*model.Feedback, error) {
	ctx, span := tracing.Tracer().Start(ctx, "contact.SubmitFeedback")
	defer span.End()

	if err := s.validator.Validate(form); err != nil {
		s.metrics.RecordValidationFailure(form.FormName())
		return nil, err
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	fb := &model.Feedback{
		ID:          uuid.New().String(),
		Rating:      form.Rating,
		RatingLabel: model.RatingLabel(form.Rating),
		Comments:    s.sanitizer.Sanitize(form.Comments),
		SubmittedAt: s.now(),
	}

	s.metrics.RecordMessageSubmitted(KindFeedback)
	events.PublishBestEffort(ctx, s.publisher, events.Event{
		Type:       events.TypeMessageSubmitted,
		Key:        fb.ID,
		Payload:    messageEnvelope{Kind: KindFeedback, Feedback: fb},
		OccurredAt: fb.SubmittedAt,
	}, s.config.PublishTimeout)
	slog.InfoContext(ctx, "feedback submitted",
		slog.String("feedback_id", fb.ID),
		slog.Int("rating", fb.Rating),
	)
	return fb, nil
}

func (s *Service) wait(ctx context.Context) error {
	timer := time.NewTimer(s.config.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
