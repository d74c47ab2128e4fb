// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層・ミドルウェア・ワーカーから利用する。
type MetricsCollector interface {
	RecordAppleAction(action string, outcome string)
	RecordRotTransition()
	RecordApplesGenerated(count int)
	RecordApplesPurged(count int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	appleActions    *prometheus.CounterVec
	rotTransitions  prometheus.Counter
	applesGenerated prometheus.Counter
	applesPurged    prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		appleActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchard_apple_actions_total",
			Help: "りんご操作の結果別の合計数",
		}, []string{"action", "outcome"}),
		rotTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchard_rot_transitions_total",
			Help: "遅延評価で腐った状態へ遷移したりんごの合計数",
		}),
		applesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchard_apples_generated_total",
			Help: "生成されたりんごの合計数",
		}),
		applesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchard_apples_purged_total",
			Help: "保持期間超過でハードデリートされたりんごの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orchard_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.appleActions,
		c.rotTransitions,
		c.applesGenerated,
		c.applesPurged,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordAppleAction はりんご操作の結果を記録する。
// actionは"fall"/"eat"/"generate"など、outcomeは"success"/"rejected"/"error"。
func (c *Collector) RecordAppleAction(action string, outcome string) {
	c.appleActions.WithLabelValues(action, outcome).Inc()
}

// RecordRotTransition は腐った状態への遷移を記録する。
func (c *Collector) RecordRotTransition() {
	c.rotTransitions.Inc()
}

// RecordApplesGenerated は生成されたりんごの数を記録する。
func (c *Collector) RecordApplesGenerated(count int) {
	c.applesGenerated.Add(float64(count))
}

// RecordApplesPurged はパージされたりんごの数を記録する。
func (c *Collector) RecordApplesPurged(count int) {
	c.applesPurged.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
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
