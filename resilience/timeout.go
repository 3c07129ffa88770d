package resilience

import (
	"context"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout wraps operations with a per-call deadline. Cancellation is
// cooperative: on expiry the operation's context is cancelled and ErrTimeout
// is returned immediately, without waiting for the operation goroutine to
// observe the cancellation and unwind.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	// Apply defaults
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Timeout{config: config}
}

// Execute runs the operation with a timeout. Expiry of the guard's own
// deadline maps to ErrTimeout; cancellation or deadline expiry of the
// caller's ctx is reported as ctx.Err() so callers can distinguish a slow
// operation from an abandoned call.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	// Buffered so the operation goroutine can finish after we stop waiting.
	done := make(chan error, 1)

	go func() {
		done <- op(opCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-opCtx.Done():
		// The parent terminating, by cancellation or its own deadline,
		// is the caller's doing; only the guard's deadline is ErrTimeout.
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrTimeout
	}
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout is a convenience function to run an operation with timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	t := NewTimeout(TimeoutConfig{Timeout: timeout})
	return t.Execute(ctx, op)
}
