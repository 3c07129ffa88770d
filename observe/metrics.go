package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records the telemetry events emitted by guarded calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a guarded call with duration and error status.
	RecordCall(ctx context.Context, meta ResourceMeta, duration time.Duration, err error)

	// RecordStateChange records a circuit breaker state transition.
	RecordStateChange(ctx context.Context, meta ResourceMeta, from, to string)

	// RecordRetry records a retry attempt and the backoff delay before it.
	RecordRetry(ctx context.Context, meta ResourceMeta, attempt int, delay time.Duration)

	// RecordQueueDepth records the current bulkhead queue depth.
	RecordQueueDepth(ctx context.Context, meta ResourceMeta, depth int)

	// RecordRejection records a call rejected before reaching the operation.
	RecordRejection(ctx context.Context, meta ResourceMeta, reason string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	transitions  metric.Int64Counter
	retries      metric.Int64Counter
	queueDepth   metric.Int64Gauge
	rejections   metric.Int64Counter
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"resilience.calls.total",
		metric.WithDescription("Total number of guarded calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"resilience.calls.errors",
		metric.WithDescription("Total number of guarded calls that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"resilience.call.duration_ms",
		metric.WithDescription("Guarded call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"resilience.circuit.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"resilience.retry.attempts",
		metric.WithDescription("Retry attempts after a failed call"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64Gauge(
		"resilience.bulkhead.queue_depth",
		metric.WithDescription("Number of callers waiting for a bulkhead permit"),
		metric.WithUnit("{caller}"),
	)
	if err != nil {
		return nil, err
	}

	rejections, err := meter.Int64Counter(
		"resilience.rejections",
		metric.WithDescription("Calls rejected before reaching the operation"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		transitions:  transitions,
		retries:      retries,
		queueDepth:   queueDepth,
		rejections:   rejections,
	}, nil
}

func (m *metricsImpl) resourceAttrs(meta ResourceMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("resilience.resource", meta.ResourceID()),
	}
	if meta.Kind != "" {
		attrs = append(attrs, attribute.String("resilience.resource.kind", meta.Kind))
	}
	return attrs
}

// RecordCall records metrics for a completed guarded call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta ResourceMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(m.resourceAttrs(meta)...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordStateChange records a circuit breaker transition with from/to labels.
func (m *metricsImpl) RecordStateChange(ctx context.Context, meta ResourceMeta, from, to string) {
	attrs := append(m.resourceAttrs(meta),
		attribute.String("resilience.circuit.from", from),
		attribute.String("resilience.circuit.to", to),
	)
	m.transitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRetry records a single retry attempt.
func (m *metricsImpl) RecordRetry(ctx context.Context, meta ResourceMeta, attempt int, delay time.Duration) {
	attrs := append(m.resourceAttrs(meta),
		attribute.Int("resilience.retry.attempt", attempt),
	)
	m.retries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordQueueDepth records the bulkhead queue depth at the time of sampling.
func (m *metricsImpl) RecordQueueDepth(ctx context.Context, meta ResourceMeta, depth int) {
	m.queueDepth.Record(ctx, int64(depth), metric.WithAttributes(m.resourceAttrs(meta)...))
}

// RecordRejection records a rejected call with its reason label.
func (m *metricsImpl) RecordRejection(ctx context.Context, meta ResourceMeta, reason string) {
	attrs := append(m.resourceAttrs(meta),
		attribute.String("resilience.reject.reason", reason),
	)
	m.rejections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta ResourceMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordStateChange(ctx context.Context, meta ResourceMeta, from, to string) {}
func (m *noopMetrics) RecordRetry(ctx context.Context, meta ResourceMeta, attempt int, delay time.Duration) {
}
func (m *noopMetrics) RecordQueueDepth(ctx context.Context, meta ResourceMeta, depth int) {}
func (m *noopMetrics) RecordRejection(ctx context.Context, meta ResourceMeta, reason string) {}
