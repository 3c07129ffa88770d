package resilience

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the declarative form of an executor's policies, loadable from
// YAML. Every section is optional; omitted sections leave that stage out of
// the pipeline. Zero-valued fields within a present section fall back to the
// same defaults the programmatic constructors apply.
type Config struct {
	CircuitBreaker *CircuitBreakerSettings `yaml:"circuit_breaker"`
	Retry          *RetrySettings          `yaml:"retry"`
	Bulkhead       *BulkheadSettings       `yaml:"bulkhead"`
	RateLimit      *RateLimitSettings      `yaml:"rate_limit"`
	Timeout        time.Duration           `yaml:"timeout"`
}

// CircuitBreakerSettings is the YAML form of CircuitBreakerConfig.
type CircuitBreakerSettings struct {
	FailureThreshold    float64       `yaml:"failure_threshold"`
	MinCalls            int           `yaml:"min_calls"`
	Window              time.Duration `yaml:"window"`
	WindowBuckets       int           `yaml:"window_buckets"`
	Cooldown            time.Duration `yaml:"cooldown"`
	CooldownMultiplier  float64       `yaml:"cooldown_multiplier"`
	MaxCooldown         time.Duration `yaml:"max_cooldown"`
	HalfOpenMaxRequests int           `yaml:"half_open_max_requests"`
}

// RetrySettings is the YAML form of RetryConfig. Strategy is one of
// "exponential", "linear", "constant"; jitter is one of "none", "full",
// "equal".
type RetrySettings struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	Strategy     string        `yaml:"strategy"`
	Jitter       string        `yaml:"jitter"`
}

// BulkheadSettings is the YAML form of BulkheadConfig.
type BulkheadSettings struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	MaxQueue      int           `yaml:"max_queue"`
	MaxWait       time.Duration `yaml:"max_wait"`
}

// RateLimitSettings is the YAML form of RateLimiterConfig.
type RateLimitSettings struct {
	Rate        float64       `yaml:"rate"`
	Burst       int           `yaml:"burst"`
	WaitOnLimit bool          `yaml:"wait_on_limit"`
	MaxWait     time.Duration `yaml:"max_wait"`
}

// ParseBackoffStrategy parses a strategy name from configuration.
func ParseBackoffStrategy(s string) (BackoffStrategy, error) {
	switch s {
	case "exponential", "":
		return BackoffExponential, nil
	case "linear":
		return BackoffLinear, nil
	case "constant":
		return BackoffConstant, nil
	default:
		return 0, fmt.Errorf("unknown backoff strategy: %q", s)
	}
}

// ParseJitterMode parses a jitter mode name from configuration.
func ParseJitterMode(s string) (JitterMode, error) {
	switch s {
	case "none", "":
		return JitterNone, nil
	case "full":
		return JitterFull, nil
	case "equal":
		return JitterEqual, nil
	default:
		return 0, fmt.Errorf("unknown jitter mode: %q", s)
	}
}

// Validate checks the configuration for values the constructors cannot
// silently default away.
func (c *Config) Validate() error {
	if cb := c.CircuitBreaker; cb != nil {
		if cb.FailureThreshold < 0 || cb.FailureThreshold > 1 {
			return fmt.Errorf("circuit_breaker.failure_threshold must be in [0, 1], got %v", cb.FailureThreshold)
		}
		if cb.CooldownMultiplier != 0 && cb.CooldownMultiplier < 1 {
			return fmt.Errorf("circuit_breaker.cooldown_multiplier must be >= 1, got %v", cb.CooldownMultiplier)
		}
	}
	if r := c.Retry; r != nil {
		if _, err := ParseBackoffStrategy(r.Strategy); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if _, err := ParseJitterMode(r.Jitter); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}
	if b := c.Bulkhead; b != nil {
		if b.MaxQueue > 0 && b.MaxWait <= 0 {
			return fmt.Errorf("bulkhead.max_wait must be set when max_queue is set")
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	return nil
}

// Options converts the configuration into executor options.
func (c *Config) Options() ([]ExecutorOption, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var opts []ExecutorOption

	if s := c.RateLimit; s != nil {
		opts = append(opts, WithRateLimiter(NewRateLimiter(RateLimiterConfig{
			Rate:        s.Rate,
			Burst:       s.Burst,
			WaitOnLimit: s.WaitOnLimit,
			MaxWait:     s.MaxWait,
		})))
	}
	if s := c.Bulkhead; s != nil {
		opts = append(opts, WithBulkhead(NewBulkhead(BulkheadConfig{
			MaxConcurrent: s.MaxConcurrent,
			MaxQueue:      s.MaxQueue,
			MaxWait:       s.MaxWait,
		})))
	}
	if s := c.CircuitBreaker; s != nil {
		opts = append(opts, WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{
			FailureThreshold:    s.FailureThreshold,
			MinCalls:            s.MinCalls,
			Window:              s.Window,
			WindowBuckets:       s.WindowBuckets,
			Cooldown:            s.Cooldown,
			CooldownMultiplier:  s.CooldownMultiplier,
			MaxCooldown:         s.MaxCooldown,
			HalfOpenMaxRequests: s.HalfOpenMaxRequests,
		})))
	}
	if s := c.Retry; s != nil {
		strategy, _ := ParseBackoffStrategy(s.Strategy)
		jitter, _ := ParseJitterMode(s.Jitter)
		opts = append(opts, WithRetry(NewRetry(RetryConfig{
			MaxAttempts:  s.MaxAttempts,
			InitialDelay: s.InitialDelay,
			MaxDelay:     s.MaxDelay,
			Multiplier:   s.Multiplier,
			Strategy:     strategy,
			Jitter:       jitter,
		})))
	}
	if c.Timeout > 0 {
		opts = append(opts, WithTimeout(c.Timeout))
	}

	return opts, nil
}

// ParseConfig parses a YAML policy document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads and parses a YAML policy file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied configuration.
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// NewExecutorFromConfig builds an executor from a declarative configuration.
func NewExecutorFromConfig(cfg *Config) (*Executor, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return NewExecutor(opts...), nil
}
