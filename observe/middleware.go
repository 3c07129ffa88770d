package observe

import (
	"context"
	"errors"
	"time"

	"github.com/pegasusheavy/armature-sub002/resilience"
)

// Middleware wraps guarded calls with observability (tracing, metrics,
// logging) and bridges the engine's hooks onto telemetry instruments.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe function.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps an operation with tracing, metrics, and logging. The returned
// function has the signature Executor.Execute expects.
func (m *Middleware) Wrap(meta ResourceMeta, op func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		err := op(ctx)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordCall(ctx, meta, duration, err)

		if reason := rejectReason(err); reason != "" {
			m.metrics.RecordRejection(ctx, meta, reason)
		}

		logger := m.logger.WithResource(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "guarded call failed", fields...)
		} else {
			logger.Info(ctx, "guarded call completed", fields...)
		}

		return err
	}
}

// Execute runs op through exec with full observability around it.
func (m *Middleware) Execute(ctx context.Context, exec *resilience.Executor, meta ResourceMeta, op func(context.Context) error) error {
	return m.Wrap(meta, func(ctx context.Context) error {
		return exec.Execute(ctx, op)
	})(ctx)
}

// CircuitStateHook returns a hook for CircuitBreakerConfig.OnStateChange
// that records transitions and logs openings.
func (m *Middleware) CircuitStateHook(meta ResourceMeta) func(from, to resilience.State) {
	logger := m.logger.WithResource(meta)
	return func(from, to resilience.State) {
		ctx := context.Background()
		m.metrics.RecordStateChange(ctx, meta, from.String(), to.String())
		switch to {
		case resilience.StateOpen:
			logger.Warn(ctx, "circuit opened",
				Field{Key: "from", Value: from.String()})
		case resilience.StateClosed:
			logger.Info(ctx, "circuit closed",
				Field{Key: "from", Value: from.String()})
		default:
			logger.Info(ctx, "circuit half-open")
		}
	}
}

// RetryHook returns a hook for RetryConfig.OnRetry that records each
// retry attempt and its backoff delay.
func (m *Middleware) RetryHook(meta ResourceMeta) func(attempt int, err error, delay time.Duration) {
	logger := m.logger.WithResource(meta)
	return func(attempt int, err error, delay time.Duration) {
		ctx := context.Background()
		m.metrics.RecordRetry(ctx, meta, attempt, delay)
		logger.Debug(ctx, "retrying after failure",
			Field{Key: "attempt", Value: attempt},
			Field{Key: "delay_ms", Value: float64(delay.Milliseconds())},
			Field{Key: "error", Value: err.Error()})
	}
}

// QueueDepthHook returns a hook for BulkheadConfig.OnQueueDepth that
// samples the queue depth gauge.
func (m *Middleware) QueueDepthHook(meta ResourceMeta) func(depth int) {
	return func(depth int) {
		m.metrics.RecordQueueDepth(context.Background(), meta, depth)
	}
}

// rejectReason classifies errors produced before the operation ran.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, resilience.ErrBulkheadFull):
		return "bulkhead_full"
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return "rate_limited"
	default:
		return ""
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger()), nil
}
