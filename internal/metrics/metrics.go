// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordWebhookEvent(eventType string)
	RecordWebhookSignatureFailure()
	RecordWebhookDuplicate()
	RecordWebhookFailure(eventType string)
	RecordWebhookLatency(duration time.Duration)
	RecordRewardClaim(rewardType string)
	RecordCheckoutSession(plan string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	webhookEvents     *prometheus.CounterVec
	webhookSigFail    prometheus.Counter
	webhookDuplicates prometheus.Counter
	webhookFailures   *prometheus.CounterVec
	webhookLatency    prometheus.Histogram
	rewardClaims      *prometheus.CounterVec
	checkoutSessions  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firstwork_webhook_events_total",
			Help: "処理したWebhookイベントの種別ごとの合計数",
		}, []string{"event_type"}),
		webhookSigFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firstwork_webhook_signature_failures_total",
			Help: "署名検証に失敗したWebhook配信の合計数",
		}),
		webhookDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firstwork_webhook_duplicates_total",
			Help: "冪等化によりスキップした再配送の合計数",
		}),
		webhookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firstwork_webhook_failures_total",
			Help: "処理に失敗したWebhookイベントの種別ごとの合計数",
		}, []string{"event_type"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "firstwork_webhook_latency_seconds",
			Help:    "Webhookイベント処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		rewardClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firstwork_reward_claims_total",
			Help: "発行した紹介特典の種別ごとの合計数",
		}, []string{"reward_type"}),
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firstwork_checkout_sessions_total",
			Help: "作成したチェックアウトセッションのプランごとの合計数",
		}, []string{"plan"}),
	}

	reg.MustRegister(
		c.webhookEvents,
		c.webhookSigFail,
		c.webhookDuplicates,
		c.webhookFailures,
		c.webhookLatency,
		c.rewardClaims,
		c.checkoutSessions,
	)

	return c
}

// RecordWebhookEvent は処理したWebhookイベントを記録する。
func (c *Collector) RecordWebhookEvent(eventType string) {
	c.webhookEvents.WithLabelValues(eventType).Inc()
}

// RecordWebhookSignatureFailure は署名検証失敗を記録する。
func (c *Collector) RecordWebhookSignatureFailure() {
	c.webhookSigFail.Inc()
}

// RecordWebhookDuplicate は冪等化によるスキップを記録する。
func (c *Collector) RecordWebhookDuplicate() {
	c.webhookDuplicates.Inc()
}

// RecordWebhookFailure は処理失敗を記録する。
func (c *Collector) RecordWebhookFailure(eventType string) {
	c.webhookFailures.WithLabelValues(eventType).Inc()
}

// RecordWebhookLatency はWebhook処理のレイテンシを記録する。
func (c *Collector) RecordWebhookLatency(duration time.Duration) {
	c.webhookLatency.Observe(duration.Seconds())
}

// RecordRewardClaim は紹介特典の発行を記録する。
func (c *Collector) RecordRewardClaim(rewardType string) {
	c.rewardClaims.WithLabelValues(rewardType).Inc()
}

// RecordCheckoutSession はチェックアウトセッションの作成を記録する。
func (c *Collector) RecordCheckoutSession(plan string) {
	c.checkoutSessions.WithLabelValues(plan).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
