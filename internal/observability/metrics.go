package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursechat_model_calls_total",
			Help: "Total number of model calls",
		},
		[]string{"provider", "status"},
	)

	modelCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursechat_model_call_duration_seconds",
			Help:    "Model call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursechat_tool_calls_total",
			Help: "Total number of tool calls",
		},
		[]string{"tool", "status"},
	)

	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursechat_tool_call_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursechat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursechat_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coursechat_active_sessions",
			Help: "Number of active conversation sessions",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers the Prometheus metrics. Safe to call more
// than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			modelCallsTotal,
			modelCallDuration,
			toolCallsTotal,
			toolCallDuration,
			httpRequestsTotal,
			httpRequestDuration,
			activeSessions,
		)
	})
}

// RecordModelCall records one model call.
func RecordModelCall(providerName, status string, duration time.Duration) {
	modelCallsTotal.WithLabelValues(providerName, status).Inc()
	if duration > 0 {
		modelCallDuration.WithLabelValues(providerName).Observe(duration.Seconds())
	}
}

// RecordToolCall records one tool execution.
func RecordToolCall(tool, status string, duration time.Duration) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
	if duration > 0 {
		toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
	}
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetActiveSessions updates the active session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}
