package resilience

import "errors"

// Sentinel errors for resilience operations. Every policy layer terminates a
// call with a distinct sentinel so callers can tell "dependency is down"
// apart from "we are overloaded" with errors.Is.
var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a call
	// without invoking the operation.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrBulkheadFull is returned when the bulkhead pool and its wait queue
	// are at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrMaxRetriesExceeded wraps the last underlying failure after all
	// retry attempts are exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrAlreadyConfigured is returned when a registry name is configured twice.
	ErrAlreadyConfigured = errors.New("resilience: executor already configured")

	// ErrNotConfigured is returned when a registry name has no executor.
	ErrNotConfigured = errors.New("resilience: executor not configured")
)
