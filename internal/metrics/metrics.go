// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordCartMutation(op string)
	RecordSignup(result string)
	RecordLogin(result string)
	RecordOrderPlaced(total decimal.Decimal)
	RecordMessageSubmitted(kind string)
	RecordValidationFailure(form string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cartMutations      *prometheus.CounterVec
	signups            *prometheus.CounterVec
	logins             *prometheus.CounterVec
	ordersPlaced       prometheus.Counter
	orderTotal         prometheus.Histogram
	messagesSubmitted  *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glowderm_cart_mutations_total",
			Help: "カート操作の合計数（操作種別ごと）",
		}, []string{"op"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glowderm_signups_total",
			Help: "サインアップ試行の合計数（結果ごと）",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glowderm_logins_total",
			Help: "ログイン試行の合計数（結果ごと）",
		}, []string{"result"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glowderm_orders_placed_total",
			Help: "確定した注文の合計数",
		}),
		orderTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "glowderm_order_total_amount",
			Help:    "注文合計金額の分布（USD）",
			Buckets: []float64{10, 25, 50, 75, 100, 150, 250, 500},
		}),
		messagesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glowderm_messages_submitted_total",
			Help: "お問い合わせ・フィードバック送信の合計数",
		}, []string{"kind"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glowderm_validation_failures_total",
			Help: "フォーム検証失敗の合計数（フォームごと）",
		}, []string{"form"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glowderm_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.cartMutations,
		c.signups,
		c.logins,
		c.ordersPlaced,
		c.orderTotal,
		c.messagesSubmitted,
		c.validationFailures,
		c.httpStatus,
	)

	return c
}

// RecordCartMutation はカート操作を記録する。
func (c *Collector) RecordCartMutation(op string) {
	c.cartMutations.WithLabelValues(op).Inc()
}

// RecordSignup はサインアップの結果を記録する。
func (c *Collector) RecordSignup(result string) {
	c.signups.WithLabelValues(result).Inc()
}

// RecordLogin はログインの結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordOrderPlaced は注文確定と合計金額を記録する。
func (c *Collector) RecordOrderPlaced(total decimal.Decimal) {
	c.ordersPlaced.Inc()
	c.orderTotal.Observe(total.InexactFloat64())
}

// RecordMessageSubmitted はフォーム送信を記録する。
func (c *Collector) RecordMessageSubmitted(kind string) {
	c.messagesSubmitted.WithLabelValues(kind).Inc()
}

// RecordValidationFailure はフォーム検証失敗を記録する。
func (c *Collector) RecordValidationFailure(form string) {
	c.validationFailures.WithLabelValues(form).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop は何も記録しないMetricsCollector。
// テストやメトリクス不要な構成で使用する。
type Nop struct{}

func (Nop) RecordCartMutation(string)         {}
func (Nop) RecordSignup(string)               {}
func (Nop) RecordLogin(string)                {}
func (Nop) RecordOrderPlaced(decimal.Decimal) {}
func (Nop) RecordMessageSubmitted(string)     {}
func (Nop) RecordValidationFailure(string)    {}
func (Nop) RecordHTTPStatus(int)              {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NewHTTPStatusMiddleware はレスポンスのステータスコードを記録するミドルウェアを返す。
func NewHTTPStatusMiddleware(c MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)
			c.RecordHTTPStatus(rec.statusCode)
		})
	}
}

// statusRecorder はステータスコードを記録するhttp.ResponseWriterラッパー。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}
