package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly with the attempt number.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// JitterMode defines how randomness is applied to backoff delays to prevent
// synchronized retry storms.
type JitterMode int

const (
	// JitterNone applies the computed delay exactly.
	JitterNone JitterMode = iota
	// JitterFull replaces the delay with a uniform value in [0, delay].
	JitterFull
	// JitterEqual keeps half the delay and randomizes the other half:
	// delay/2 + uniform(0, delay/2).
	JitterEqual
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the base delay used by the backoff strategy.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the maximum delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter selects the jitter mode applied to computed delays.
	// Default: JitterNone
	Jitter JitterMode

	// RetryIf determines if an error should trigger a retry. Circuit and
	// bulkhead rejections are never retried regardless of this predicate.
	// Default: retry everything except timeouts and context errors.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt with the delay about to
	// be applied.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry implements retry with backoff. Attempt state is local to each
// Execute call; a Retry value is immutable and safe for concurrent use.
type Retry struct {
	config RetryConfig
}

// DefaultRetryable is the default retry predicate. It refuses to retry
// timeouts (retrying a slow dependency doubles its load) and context
// cancellation; everything else non-nil is retryable. Circuit and bulkhead
// rejections are excluded unconditionally by Execute itself.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimitExceeded) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = DefaultRetryable
	}

	return &Retry{config: config}
}

// Execute runs the operation with retry logic. The operation is invoked at
// most MaxAttempts times; non-retryable errors propagate verbatim, and a
// retryable error on the final attempt is wrapped in ErrMaxRetriesExceeded.
// The backoff sleep is a cancellable suspension: if ctx is done the next
// attempt is abandoned and ctx.Err() is returned.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)

		if err == nil {
			return nil
		}

		lastErr = err

		// An open circuit or a saturated bulkhead is not a retryable
		// condition: retrying amplifies load on a known-bad resource.
		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrBulkheadFull) {
			return err
		}

		if !r.config.RetryIf(err) {
			return err
		}

		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.calculateDelay(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, r.config.MaxAttempts, lastErr)
}

func (r *Retry) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.InitialDelay

	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)

	case BackoffExponential:
		multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.InitialDelay) * multiplier)
	}

	// Cap at max delay
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	if delay <= 0 {
		return 0
	}

	switch r.config.Jitter {
	case JitterFull:
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay = time.Duration(rand.Int64N(int64(delay) + 1))
	case JitterEqual:
		half := delay / 2
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay = half + time.Duration(rand.Int64N(int64(half)+1))
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
