package limiter

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder bridges the limiter's signals into Prometheus.
type PrometheusRecorder struct {
	decisions *prometheus.CounterVec
	degraded  *prometheus.CounterVec
	latency   prometheus.Histogram
}

// NewPrometheusRecorder builds a recorder and registers its collectors.
// Pass prometheus.DefaultRegisterer for the process-global registry.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_engine_decisions_total",
			Help: "Admission decisions by outcome.",
		}, []string{"outcome"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_engine_degraded_total",
			Help: "Decisions taken while the backend was unavailable, by failure policy.",
		}, []string{"policy"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rate_engine_step_duration_seconds",
			Help:    "Latency of one admission step, including the backend round trip.",
			Buckets: prometheus.ExponentialBuckets(50e-6, 4, 10),
		}),
	}
	reg.MustRegister(r.decisions, r.degraded, r.latency)
	return r
}

func (r *PrometheusRecorder) Add(name string, value float64, tags map[string]string) {
	switch name {
	case MetricDecision:
		r.decisions.WithLabelValues(tags["outcome"]).Add(value)
	case MetricDegraded:
		r.degraded.WithLabelValues(tags["policy"]).Add(value)
	}
}

func (r *PrometheusRecorder) Observe(name string, value float64, tags map[string]string) {
	if name == MetricLatency {
		r.latency.Observe(value)
	}
}
