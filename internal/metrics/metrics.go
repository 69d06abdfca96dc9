// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// ファンアウトの各フェーズと決済・通知の主要イベントを記録する。
type Collector struct {
	adaptSuccess     prometheus.Counter
	adaptFail        prometheus.Counter
	publishSuccess   prometheus.Counter
	publishFail      prometheus.Counter
	fanoutLatency    prometheus.Histogram
	fanoutSites      prometheus.Histogram
	fanoutSucceeded  prometheus.Histogram
	checkoutSessions prometheus.Counter
	webhookEvents    *prometheus.CounterVec
	emailsSent       prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		adaptSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressrelay_adaptation_success_total",
			Help: "記事リライト成功の合計数",
		}),
		adaptFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressrelay_adaptation_fail_total",
			Help: "記事リライト失敗の合計数",
		}),
		publishSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressrelay_publication_success_total",
			Help: "ページ作成成功の合計数",
		}),
		publishFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressrelay_publication_fail_total",
			Help: "ページ作成失敗の合計数",
		}),
		fanoutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pressrelay_fanout_duration_seconds",
			Help:    "ファンアウト1回の所要時間（秒）",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		fanoutSites: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pressrelay_fanout_sites",
			Help:    "ファンアウト1回あたりの配信先サイト数",
			Buckets: []float64{1, 2, 4, 6, 8, 12},
		}),
		fanoutSucceeded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pressrelay_fanout_succeeded_sites",
			Help:    "ファンアウト1回あたりの配信成功サイト数",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 12},
		}),
		checkoutSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressrelay_checkout_sessions_total",
			Help: "作成されたチェックアウトセッションの合計数",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pressrelay_webhook_events_total",
			Help: "受信したWebhookイベントの結果別合計数",
		}, []string{"result"}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressrelay_emails_sent_total",
			Help: "送信されたメールの合計数",
		}),
	}

	reg.MustRegister(
		c.adaptSuccess,
		c.adaptFail,
		c.publishSuccess,
		c.publishFail,
		c.fanoutLatency,
		c.fanoutSites,
		c.fanoutSucceeded,
		c.checkoutSessions,
		c.webhookEvents,
		c.emailsSent,
	)

	return c
}

// IncAdaptation はリライトの成否を記録する。
func (c *Collector) IncAdaptation(success bool) {
	if success {
		c.adaptSuccess.Inc()
	} else {
		c.adaptFail.Inc()
	}
}

// IncPublication はページ作成の成否を記録する。
func (c *Collector) IncPublication(success bool) {
	if success {
		c.publishSuccess.Inc()
	} else {
		c.publishFail.Inc()
	}
}

// ObserveFanOut はファンアウト1回の所要時間・サイト数・成功サイト数を記録する。
func (c *Collector) ObserveFanOut(duration time.Duration, sites, succeeded int) {
	c.fanoutLatency.Observe(duration.Seconds())
	c.fanoutSites.Observe(float64(sites))
	c.fanoutSucceeded.Observe(float64(succeeded))
}

// RecordCheckoutSession はチェックアウトセッションの作成を記録する。
func (c *Collector) RecordCheckoutSession() {
	c.checkoutSessions.Inc()
}

// RecordWebhookEvent はWebhookイベントの処理結果を記録する。
// resultは "completed" / "ignored" / "rejected" のいずれか。
func (c *Collector) RecordWebhookEvent(result string) {
	c.webhookEvents.WithLabelValues(result).Inc()
}

// RecordEmailSent はメール送信を記録する。
func (c *Collector) RecordEmailSent() {
	c.emailsSent.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
