package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

// TracingCollector implements eventstore.TracingCollector with an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector that starts its spans with tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts an internal span. The returned context carries it, so logs and metrics
// recorded with that context are correlated with the span.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	ctx, span := t.tracer.Start(
		ctx,
		name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attributes(attrs)...),
	)

	return ctx, &SpanContext{span: span}
}

// FinishSpan adds attrs, sets the status, and ends the span. Spans of other collectors are ignored.
func (t *TracingCollector) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpanContext)
	if !ok {
		return
	}

	span.span.SetAttributes(attributes(attrs)...)
	span.setStatus(status, attrs[eventstore.LabelErrorType])
	span.span.End()
}

var _ eventstore.TracingCollector = (*TracingCollector)(nil)

// SpanContext wraps an OpenTelemetry span.
type SpanContext struct {
	span trace.Span
}

func (s *SpanContext) SetStatus(status string) {
	s.setStatus(status, "")
}

func (s *SpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// setStatus maps the eventstore status to a span status. An error type becomes the description.
func (s *SpanContext) setStatus(status string, errorType string) {
	switch status {
	case eventstore.StatusSuccess:
		s.span.SetStatus(codes.Ok, "")
	case eventstore.StatusError:
		s.span.SetStatus(codes.Error, errorType)
	default:
		s.span.SetAttributes(attribute.String(eventstore.LabelStatus, status))
	}
}

var _ eventstore.SpanContext = (*SpanContext)(nil)

func attributes(attrs map[string]string) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for key, value := range attrs {
		kvs = append(kvs, attribute.String(key, value))
	}

	return kvs
}
