package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ResourceMeta identifies a guarded downstream resource for telemetry
// purposes. Name is required; everything else is optional.
type ResourceMeta struct {
	Name    string   // Resource name (required)
	Kind    string   // Resource kind, e.g. "http", "grpc", "db" (optional)
	Version string   // Resource or client version (optional)
	Tags    []string // Tags for grouping in dashboards (optional)
}

// SpanName returns the deterministic span name for this resource.
// Format: resilience.call.<kind>.<name> or resilience.call.<name>
func (m ResourceMeta) SpanName() string {
	if m.Kind != "" {
		return "resilience.call." + m.Kind + "." + m.Name
	}
	return "resilience.call." + m.Name
}

// ResourceID returns the fully qualified resource identifier.
func (m ResourceMeta) ResourceID() string {
	if m.Kind != "" {
		return m.Kind + "." + m.Name
	}
	return m.Name
}

// Tracer wraps OpenTelemetry tracing with resource-scoped span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a guarded call.
	StartSpan(ctx context.Context, meta ResourceMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with resource metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta ResourceMeta) (context.Context, trace.Span) {
	spanName := meta.SpanName()

	attrs := []attribute.KeyValue{
		attribute.String("resilience.resource", meta.ResourceID()),
		attribute.String("resilience.resource.name", meta.Name),
		attribute.Bool("resilience.call.error", false), // Updated in EndSpan if error
	}

	if meta.Kind != "" {
		attrs = append(attrs, attribute.String("resilience.resource.kind", meta.Kind))
	}
	if meta.Version != "" {
		attrs = append(attrs, attribute.String("resilience.resource.version", meta.Version))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("resilience.resource.tags", meta.Tags))
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("resilience.call.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ResourceMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
