package sched

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements workchain.Metrics, namespaced "workchain_",
// adapted from the teacher's PrometheusMetrics (graph/metrics.go).
type PrometheusMetrics struct {
	pendingAwaitables *prometheus.GaugeVec
	stepDuration      *prometheus.HistogramVec
	callbacksTotal    *prometheus.CounterVec
}

// NewPrometheusMetrics registers workchain_* metrics with registry (use
// prometheus.DefaultRegisterer for the global registry, or a fresh
// *prometheus.Registry for test isolation).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		pendingAwaitables: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "workchain",
			Name:      "pending_awaitables",
			Help:      "Current number of unresolved awaitables for a chain",
		}, []string{"pk"}),

		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workchain",
			Name:      "step_duration_seconds",
			Help:      "Duration of a single atomic step",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"pk", "step"}),

		callbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workchain",
			Name:      "callback_total",
			Help:      "Total number of process-finish callbacks fired",
		}, []string{"pk"}),
	}
}

// PendingAwaitables implements workchain.Metrics.
func (m *PrometheusMetrics) PendingAwaitables(pk string, n int) {
	m.pendingAwaitables.WithLabelValues(pk).Set(float64(n))
}

// StepDuration implements workchain.Metrics.
func (m *PrometheusMetrics) StepDuration(pk, stepName string, seconds float64) {
	m.stepDuration.WithLabelValues(pk, stepName).Observe(seconds)
}

// CallbackFired implements workchain.Metrics.
func (m *PrometheusMetrics) CallbackFired(pk string) {
	m.callbacksTotal.WithLabelValues(pk).Inc()
}
