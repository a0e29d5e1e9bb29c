package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter records each Event as an immediately-ended span, suitable
// for correlating chain lifecycle events with the DoStep spans chain.go
// creates directly.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter wraps tracer (e.g. otel.Tracer("workchain")).
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit implements Emitter.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()
	o.annotate(span, event)
}

// EmitBatch implements Emitter.
func (o *OTelEmitter) EmitBatch(events []Event) {
	for _, event := range events {
		o.Emit(event)
	}
}

// Flush is a no-op: span export is the tracer provider's concern.
func (o *OTelEmitter) Flush() error { return nil }

func (o *OTelEmitter) annotate(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("workchain.pk", event.PK),
		attribute.String("workchain.step", event.Step),
	)
	for k, v := range event.Meta {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String("workchain.meta."+k, val))
		case int:
			span.SetAttributes(attribute.Int("workchain.meta."+k, val))
		case bool:
			span.SetAttributes(attribute.Bool("workchain.meta."+k, val))
		}
	}
	if errMsg, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, errMsg)
		span.RecordError(fmt.Errorf("%s", errMsg))
	}
}
