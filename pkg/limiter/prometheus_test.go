package limiter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.Add(MetricDecision, 1, map[string]string{"outcome": "allowed"})
	rec.Add(MetricDecision, 1, map[string]string{"outcome": "allowed"})
	rec.Add(MetricDecision, 1, map[string]string{"outcome": "denied"})
	rec.Add(MetricDegraded, 1, map[string]string{"policy": "fail_open"})
	rec.Observe(MetricLatency, 0.002, nil)

	if got := testutil.ToFloat64(rec.decisions.WithLabelValues("allowed")); got != 2 {
		t.Errorf("decisions{allowed} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.decisions.WithLabelValues("denied")); got != 1 {
		t.Errorf("decisions{denied} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.degraded.WithLabelValues("fail_open")); got != 1 {
		t.Errorf("degraded{fail_open} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(rec.latency); got != 1 {
		t.Errorf("latency collector count = %d, want 1", got)
	}

	// Unknown metric names must be ignored, not panic.
	rec.Add("something.else", 1, nil)
	rec.Observe("something.else", 1, nil)
}

func TestPrometheusRecorder_RegistersCleanly(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusRecorder(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	// Histograms without observations still gather.
	if len(families) == 0 {
		t.Error("expected registered metric families")
	}
}
