package sched

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheusMetricsPendingAwaitablesSetsGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPrometheusMetrics(registry)

	m.PendingAwaitables("pk-1", 3)

	metrics, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, mf := range metrics {
		if mf.GetName() != "workchain_pending_awaitables" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if metric.GetGauge().GetValue() == 3 {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected to find pending_awaitables gauge set to 3, got %v", dump(metrics))
	}
}

func TestPrometheusMetricsCallbackFiredIncrementsCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPrometheusMetrics(registry)

	m.CallbackFired("pk-2")
	m.CallbackFired("pk-2")

	metrics, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var total float64
	for _, mf := range metrics {
		if mf.GetName() != "workchain_callback_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	if total != 2 {
		t.Fatalf("expected callback_total=2, got %v", total)
	}
}

func dump(mfs []*dto.MetricFamily) []string {
	names := make([]string, len(mfs))
	for i, mf := range mfs {
		names[i] = mf.GetName()
	}
	return names
}
