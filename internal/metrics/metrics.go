// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 購読判定・リモート照会・管理フローの結果を集計する。
type Collector struct {
	verifyDecision *prometheus.CounterVec
	remoteFailure  *prometheus.CounterVec
	flowCompletion *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		verifyDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookbot_verify_decision_total",
			Help: "購読判定の結果別の合計数",
		}, []string{"outcome"}),
		remoteFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookbot_remote_failure_total",
			Help: "購読レジストリ照会失敗のコード別合計数",
		}, []string{"code"}),
		flowCompletion: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookbot_admin_flow_total",
			Help: "管理フローの種別・結果別の完了数",
		}, []string{"flow", "result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookbot_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.verifyDecision,
		c.remoteFailure,
		c.flowCompletion,
		c.httpStatus,
	)

	return c
}

// RecordVerifyDecision は購読判定の結果を記録する。
func (c *Collector) RecordVerifyDecision(outcome string) {
	c.verifyDecision.WithLabelValues(outcome).Inc()
}

// RecordRemoteFailure はレジストリ照会失敗を記録する。
func (c *Collector) RecordRemoteFailure(code string) {
	c.remoteFailure.WithLabelValues(code).Inc()
}

// RecordFlowCompletion は管理フローの完了結果を記録する。
func (c *Collector) RecordFlowCompletion(flow string, result string) {
	c.flowCompletion.WithLabelValues(flow, result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
