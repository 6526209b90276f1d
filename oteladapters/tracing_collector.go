package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-loan-ledger/shell"
)

// TracingCollector creates OpenTelemetry spans for command handling.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a new OpenTelemetry tracing collector.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span carrying attrs and returns the context holding it.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, shell.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds attrs, sets the status and ends the span.
func (t *TracingCollector) FinishSpan(spanCtx shell.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(toAttributes(attrs)...)
	otelSpanCtx.SetStatus(status)
	otelSpanCtx.span.End()
}

var _ shell.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext wraps an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus maps the shell status values to OpenTelemetry status codes.
// Idempotent and rejected commands are regular outcomes, so their spans are Ok.
func (s *OTelSpanContext) SetStatus(status string) {
	switch status {
	case shell.StatusSuccess, shell.StatusIdempotent, shell.StatusRejected:
		s.span.SetStatus(codes.Ok, "")
	case shell.StatusError:
		s.span.SetStatus(codes.Error, "operation failed")
	case shell.StatusCanceled:
		s.span.SetStatus(codes.Error, "operation canceled")
	case shell.StatusTimeout:
		s.span.SetStatus(codes.Error, "operation timed out")
	case shell.StatusConcurrencyConflict:
		s.span.SetStatus(codes.Error, "concurrency conflict")
	}

	s.span.SetAttributes(attribute.String(shell.LogAttrStatus, status))
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var _ shell.SpanContext = (*OTelSpanContext)(nil)
