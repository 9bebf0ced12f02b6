package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// ProducerClient はKafkaPublisherが使う[kgo.Client]の部分集合。
type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher はイベントをJSONにしてKafkaへ同期送信する。
// トピック名は topicPrefix + イベント種別。
type KafkaPublisher struct {
	cl          ProducerClient
	topicPrefix string
}

// DefaultRecordDeliveryTimeout はレコード1件の配送を諦めるまでの時間。
// ブローカーに到達できない間、ProduceSyncが無期限に待たないようにする。
const DefaultRecordDeliveryTimeout = 5 * time.Second

// NewKafkaClient はシードブローカーに接続するkgo.Clientを生成する。
// deliveryTimeoutが0以下の場合はDefaultRecordDeliveryTimeoutを使う。
func NewKafkaClient(seedBrokers []string, clientID string, deliveryTimeout time.Duration) (*kgo.Client, error) {
	if deliveryTimeout <= 0 {
		deliveryTimeout = DefaultRecordDeliveryTimeout
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(seedBrokers...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
		kgo.ProduceRequestTimeout(deliveryTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return cl, nil
}

// NewKafkaPublisher はKafkaPublisherを生成する。
func NewKafkaPublisher(cl ProducerClient, topicPrefix string) *KafkaPublisher {
	return &KafkaPublisher{cl: cl, topicPrefix: topicPrefix}
}

// Publish はイベントを1レコードとして送信する。キーはEvent.Key。
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", e.Type, err)
	}

	r := &kgo.Record{
		Topic: p.Topic(e.Type),
		Key:   []byte(e.Key),
		Value: value,
	}
	if err := p.cl.ProduceSync(ctx, r).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce event %s: %w", e.Type, err)
	}
	return nil
}

// Topic はイベント種別に対応するトピック名を返す。
func (p *KafkaPublisher) Topic(eventType string) string {
	return p.topicPrefix + eventType
}

// Close は下位のクライアントを閉じる。
func (p *KafkaPublisher) Close() {
	slog.Info("closing kafka publisher...")
	p.cl.Close()
	slog.Info("kafka publisher is closed")
}

var _ Publisher = (*KafkaPublisher)(nil)
