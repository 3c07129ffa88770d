package resilience

import (
	"context"
	"time"
)

// Executor composes the resilience policies into a fixed pipeline with a
// single Execute entry point. The ordering is deliberate:
//
//	rate limiter -> bulkhead -> retry( circuit( timeout( operation ) ) ) -> fallback
//
// The bulkhead gates total concurrency before any circuit or timeout
// bookkeeping, so capacity rejections never pollute the breaker's failure
// statistics. The circuit breaker gates each individual attempt inside the
// retry loop, so a circuit that opens mid-retry stops further attempts
// immediately. The timeout wraps only the actual operation invocation, not
// queue wait time. Terminal errors pass through the fallback chain before
// reaching the caller.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
	fallback       *Fallback
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor. With no options it runs
// operations unwrapped.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout adds a per-attempt timeout to the executor.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig adds a timeout with custom config to the executor.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// WithFallback adds a fallback chain consulted on terminal errors.
func WithFallback(f *Fallback) ExecutorOption {
	return func(e *Executor) {
		e.fallback = f
	}
}

// CircuitBreaker returns the configured circuit breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Bulkhead returns the configured bulkhead, or nil.
func (e *Executor) Bulkhead() *Bulkhead {
	return e.bulkhead
}

// Execute runs the operation through the configured pipeline.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	err := e.run(ctx, op)
	if err != nil && e.fallback != nil {
		return e.fallback.Resolve(ctx, err)
	}
	return err
}

func (e *Executor) run(ctx context.Context, op func(context.Context) error) error {
	if e.rateLimiter != nil {
		if err := e.rateLimiter.Acquire(ctx); err != nil {
			return err
		}
	}

	if e.bulkhead != nil {
		permit, err := e.bulkhead.Acquire(ctx)
		if err != nil {
			return err
		}
		// Held across all attempts; released exactly once whichever path
		// exits first.
		defer permit.Release()
	}

	if e.retry != nil {
		return e.retry.Execute(ctx, e.attempt(op))
	}
	return e.attempt(op)(ctx)
}

// attempt wraps one invocation of the operation with the circuit breaker
// admission check, the per-attempt timeout, and outcome recording. The
// breaker is re-checked on every attempt since it may have opened mid-retry.
func (e *Executor) attempt(op func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if e.circuitBreaker != nil {
			if err := e.circuitBreaker.Allow(); err != nil {
				return err
			}
		}

		var err error
		if e.timeout != nil {
			err = e.timeout.Execute(ctx, op)
		} else {
			err = op(ctx)
		}

		if e.circuitBreaker != nil {
			if err != nil {
				e.circuitBreaker.OnFailure(err)
			} else {
				e.circuitBreaker.OnSuccess()
			}
		}
		return err
	}
}

// Run executes fn through the executor and returns its result. This is a
// convenience wrapper for operations that return a value; a fallback handler
// that substitutes a result can write to a variable captured by fn's caller.
func Run[T any](ctx context.Context, e *Executor, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}
