package workchain

import (
	"log/slog"

	"github.com/dshills/workchain-go/workchain/emit"
	"go.opentelemetry.io/otel/trace"
)

// Metrics is the narrow observability surface a WorkChain reports through,
// kept small enough that a Prometheus-backed implementation and a no-op
// implementation are equally trivial to write (spec.md §10 ambient stack;
// grounded on the teacher's emit.Emitter shape).
type Metrics interface {
	PendingAwaitables(pk string, n int)
	StepDuration(pk, stepName string, seconds float64)
	CallbackFired(pk string)
}

type noopMetrics struct{}

func (noopMetrics) PendingAwaitables(string, int)       {}
func (noopMetrics) StepDuration(string, string, float64) {}
func (noopMetrics) CallbackFired(string)                {}

// chainConfig collects the functional-option settings for a WorkChain,
// mirroring the teacher's engineConfig/Option pattern (graph/options.go).
type chainConfig struct {
	logger  *slog.Logger
	metrics Metrics
	tracer  trace.Tracer
	emitter emit.Emitter
}

func defaultChainConfig() *chainConfig {
	return &chainConfig{
		logger:  slog.Default(),
		metrics: noopMetrics{},
		tracer:  trace.NewNoopTracerProvider().Tracer("workchain"),
		emitter: emit.NewNullEmitter(),
	}
}

// ChainOption configures a WorkChain at construction time.
type ChainOption func(*chainConfig)

// WithLogger overrides the structured logger a chain and its Process
// lifecycle use.
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *chainConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics wires a Metrics sink, e.g. a Prometheus-backed adapter from
// workchain/sched.
func WithMetrics(metrics Metrics) ChainOption {
	return func(c *chainConfig) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// WithTracer wires an OpenTelemetry tracer for the span each DoStep call
// opens.
func WithTracer(tracer trace.Tracer) ChainOption {
	return func(c *chainConfig) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithEmitter wires a lifecycle event sink (workchain/emit).
func WithEmitter(emitter emit.Emitter) ChainOption {
	return func(c *chainConfig) {
		if emitter != nil {
			c.emitter = emitter
		}
	}
}
