package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{})
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func TestOTelEmitterEmitCreatesEndedSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.Emit(Event{
		PK:   "pk-1",
		Msg:  "suspend",
		Step: "launch",
		Meta: map[string]interface{}{"count": 3, "ready": true},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "suspend" {
		t.Errorf("span name = %q, want %q", span.Name, "suspend")
	}
	if !span.EndTime.After(span.StartTime) {
		t.Errorf("expected span to be ended")
	}

	attrs := attributeMap(span.Attributes)
	if attrs["workchain.pk"] != "pk-1" {
		t.Errorf("workchain.pk = %v, want pk-1", attrs["workchain.pk"])
	}
	if attrs["workchain.step"] != "launch" {
		t.Errorf("workchain.step = %v, want launch", attrs["workchain.step"])
	}
	if attrs["workchain.meta.count"] != int64(3) {
		t.Errorf("workchain.meta.count = %v, want 3", attrs["workchain.meta.count"])
	}
	if attrs["workchain.meta.ready"] != true {
		t.Errorf("workchain.meta.ready = %v, want true", attrs["workchain.meta.ready"])
	}
}

func TestOTelEmitterEmitWithErrorSetsStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.Emit(Event{PK: "pk-1", Msg: "finish", Meta: map[string]interface{}{"error": "boom"}})

	span := exporter.GetSpans()[0]
	if span.Status.Code != codes.Error {
		t.Errorf("status code = %v, want Error", span.Status.Code)
	}
	if span.Status.Description != "boom" {
		t.Errorf("status description = %q, want boom", span.Status.Description)
	}
	if len(span.Events) == 0 {
		t.Errorf("expected a recorded error event")
	}
}

func TestOTelEmitterEmitBatchCreatesOneSpanPerEvent(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.EmitBatch([]Event{
		{PK: "pk-1", Msg: "suspend"},
		{PK: "pk-1", Msg: "resolve"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
}
