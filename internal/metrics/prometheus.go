package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the chat pipeline.
type Metrics struct {
	// Pipeline metrics
	ChatRequests   prometheus.Counter
	ChatSuccesses  prometheus.Counter
	ChatFailures   *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	UploadBytes    prometheus.Histogram
	ResponseBytes  prometheus.Histogram
	AgentFallbacks prometheus.Counter
}

// New creates and registers all pipeline metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ChatRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of chat pipeline requests",
		}),
		ChatSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_successes_total",
			Help: "Total number of chat requests that returned audio",
		}),
		ChatFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_failures_total",
			Help: "Total number of failed chat requests by classification",
		}, []string{"kind"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"stage"}),
		UploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_upload_bytes",
			Help:    "Size of uploaded audio clips in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KB to ~16MB
		}),
		ResponseBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_response_bytes",
			Help:    "Size of synthesized audio responses in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		AgentFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_agent_fallbacks_total",
			Help: "Total number of conversation turns degraded to fallback text",
		}),
	}
}
