package idem

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 指标结果标签值
const (
	resultExecuted  = "executed"
	resultReplayed  = "replayed"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
)

// guardMetrics 幂等守卫的 Prometheus 指标。
// 未注册时为 nil，所有方法对 nil 接收者安全。
type guardMetrics struct {
	executions  *prometheus.CounterVec
	httpCache   *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func newGuardMetrics(reg prometheus.Registerer) *guardMetrics {
	if reg == nil {
		return nil
	}

	m := &guardMetrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payidem_executions_total",
			Help: "Guarded task executions by operation and result.",
		}, []string{"op", "result"}),
		httpCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payidem_http_cache_total",
			Help: "Request middleware cache lookups by route and result.",
		}, []string{"route", "result"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payidem_store_errors_total",
			Help: "Idempotency store failures by operation.",
		}, []string{"op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payidem_execution_duration_seconds",
			Help:    "Wall time of guarded task executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(m.executions, m.httpCache, m.storeErrors, m.duration)
	return m
}

func (m *guardMetrics) observeExecution(op, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(op, result).Inc()
	if result == resultExecuted {
		m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}

func (m *guardMetrics) observeHTTPCache(route, result string) {
	if m == nil {
		return
	}
	m.httpCache.WithLabelValues(route, result).Inc()
}

func (m *guardMetrics) observeStoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}
