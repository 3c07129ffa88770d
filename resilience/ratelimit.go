package resilience

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of operations allowed per second.
	// Default: 100
	Rate float64

	// Burst is the maximum burst size.
	// Default: 10
	Burst int

	// WaitOnLimit waits for a token instead of returning an error.
	// Default: false
	WaitOnLimit bool

	// MaxWait is the maximum time to wait for a token.
	// Default: 1 second
	MaxWait time.Duration
}

// RateLimiter is a process-local token bucket. It shapes the request rate
// into one guarded resource; it does not coordinate across processes.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter

	mu      sync.Mutex
	allowed int64
	limited int64
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	// Apply defaults
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}

	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Allow reports whether a single operation may proceed right now.
func (rl *RateLimiter) Allow() bool {
	ok := rl.limiter.Allow()
	rl.count(ok)
	return ok
}

// Acquire obtains permission for one operation, waiting up to MaxWait when
// WaitOnLimit is set. Returns ErrRateLimitExceeded when the limit cannot be
// satisfied, or ctx.Err() when cancelled while waiting.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	if rl.limiter.Allow() {
		rl.count(true)
		return nil
	}

	if !rl.config.WaitOnLimit {
		rl.count(false)
		return ErrRateLimitExceeded
	}

	waitCtx, cancel := context.WithTimeout(ctx, rl.config.MaxWait)
	defer cancel()

	if err := rl.limiter.Wait(waitCtx); err != nil {
		rl.count(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRateLimitExceeded
	}
	rl.count(true)
	return nil
}

// Execute runs the operation if the rate limit permits it.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := rl.Acquire(ctx); err != nil {
		return err
	}
	return op(ctx)
}

func (rl *RateLimiter) count(allowed bool) {
	rl.mu.Lock()
	if allowed {
		rl.allowed++
	} else {
		rl.limited++
	}
	rl.mu.Unlock()
}

// Metrics returns current rate limiter statistics.
func (rl *RateLimiter) Metrics() RateLimiterMetrics {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return RateLimiterMetrics{
		Allowed: rl.allowed,
		Limited: rl.limited,
	}
}

// RateLimiterMetrics contains rate limiter statistics.
type RateLimiterMetrics struct {
	Allowed int64
	Limited int64
}
