// Package events はドメインイベントの発行を提供する。
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// イベント種別
const (
	TypeOrderPlaced      = "order.placed"
	TypeMessageSubmitted = "message.submitted"
)

// Event は発行するドメインイベント。
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher はイベントの発行先を抽象化する。
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher はイベントをログに出力するだけのPublisher。
// ブローカー未設定時の既定実装。
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher はLogPublisherを生成する。loggerがnilの場合はslog.Default()を使う。
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish はイベントをINFOレベルで記録する。
func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "event published",
		slog.String("type", e.Type),
		slog.String("key", e.Key),
		slog.String("payload", string(payload)),
	)
	return nil
}

// DefaultPublishTimeout はPublishBestEffortの送信待ちの上限の既定値。
const DefaultPublishTimeout = 3 * time.Second

// PublishBestEffort はイベントを発行し、失敗した場合はログに記録するのみでエラーを返さない。
// 送信はtimeout（0以下ならDefaultPublishTimeout）で打ち切る。
// 呼び出し元のキャンセルは引き継がないため、クライアント切断後もイベントは送られる。
func PublishBestEffort(ctx context.Context, p Publisher, e Event, timeout time.Duration) {
	if p == nil {
		return
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := p.Publish(pubCtx, e); err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			slog.String("type", e.Type),
			slog.String("key", e.Key),
			slog.Duration("timeout", timeout),
			slog.String("error", err.Error()),
		)
	}
}

var _ Publisher = (*LogPublisher)(nil)
