// Package resilience wraps fallible operations with fault-tolerance
// policies: circuit breaking, retry with backoff, concurrency bulkheading,
// timeout enforcement, rate limiting, and fallback chaining.
//
// The package is a library boundary, not a network service. It owns no
// threads: operations execute as caller-supplied units of work, and the
// engine wraps and suspends around them. All state is process-local and
// lost on restart.
//
// # Patterns
//
//   - Circuit Breaker: stops calling a failing dependency until it appears
//     recovered, driven by a time-bucketed sliding window of outcomes.
//
//   - Retry: re-invokes an operation on retryable failure with constant,
//     linear, or exponential backoff and optional full or equal jitter.
//
//   - Bulkhead: caps concurrent in-flight calls with a permit pool and an
//     optional bounded FIFO wait queue.
//
//   - Timeout: enforces a per-attempt deadline with cooperative cancellation.
//
//   - Rate Limiter: process-local token bucket shaping the request rate.
//
//   - Fallback: ordered substitute handlers consulted on terminal errors.
//
// # Usage
//
// Each pattern can be used independently or composed through an Executor:
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 0.5,
//	    MinCalls:         5,
//	    Cooldown:         30 * time.Second,
//	})
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: 100 * time.Millisecond,
//	    Strategy:     resilience.BackoffExponential,
//	    Jitter:       resilience.JitterEqual,
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 20})),
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(2*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return callDownstream(ctx)
//	})
//
// The pipeline order is fixed: rate limiter, then bulkhead, then the retry
// loop in which every attempt passes the circuit breaker and runs under the
// timeout. Terminal errors pass through the fallback chain before reaching
// the caller; each policy layer terminates with a distinct sentinel error.
package resilience
