package limiter

// Metric names passed to the MetricsRecorder.
const (
	MetricDecision = "ratelimit.call"
	MetricDegraded = "ratelimit.degraded"
	MetricLatency  = "ratelimit.latency"
)

// MetricsRecorder receives the limiter's observability signals. Implement
// it to bridge into your metrics system, or use PrometheusRecorder.
type MetricsRecorder interface {
	Add(name string, value float64, tags map[string]string)
	Observe(name string, value float64, tags map[string]string)
}

// NoOpMetricsRecorder is a placeholder that does nothing.
// It ensures we never have to check 'if r.recorder != nil' in our hot path.
type NoOpMetricsRecorder struct{}

func (n *NoOpMetricsRecorder) Add(name string, value float64, tags map[string]string)     {}
func (n *NoOpMetricsRecorder) Observe(name string, value float64, tags map[string]string) {}
