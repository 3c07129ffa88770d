package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the failure rate (0.0-1.0) at which the circuit
	// opens, evaluated over the sliding window.
	// Default: 0.5
	FailureThreshold float64

	// MinCalls is the minimum number of calls in the window before the
	// failure rate is evaluated at all.
	// Default: 5
	MinCalls int

	// Window is the duration covered by the sliding outcome window.
	// Default: 10 seconds
	Window time.Duration

	// WindowBuckets is the number of rotation buckets in the window.
	// Default: 10
	WindowBuckets int

	// Cooldown is how long the circuit stays open before probing recovery.
	// Default: 30 seconds
	Cooldown time.Duration

	// CooldownMultiplier grows the cooldown each time a half-open probe
	// fails, to avoid flapping against a still-unhealthy dependency.
	// A multiplier of 1.0 keeps the cooldown constant.
	// Default: 2.0
	CooldownMultiplier float64

	// MaxCooldown caps the grown cooldown.
	// Default: 5 minutes
	MaxCooldown time.Duration

	// HalfOpenMaxRequests is the max trial requests admitted in half-open
	// state before the outcome is decided.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called when the circuit state changes. It is invoked
	// while the breaker's lock is held, so it must not call back into the
	// breaker.
	OnStateChange func(from, to State)

	// IsFailure determines if an error should count as a failure. A
	// non-nil error classified as a non-failure leaves the call
	// unresolved: it is recorded in neither direction.
	// Default: all non-nil errors except context.Canceled are failures.
	IsFailure func(err error) bool
}

// CircuitBreaker implements the circuit breaker pattern over a sliding
// outcome window. One breaker guards one downstream resource and is shared
// by all concurrent callers of that resource; state transitions are
// serialized by an internal mutex.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu            sync.Mutex
	state         State
	window        *window
	cooldown      time.Duration
	openedAt      time.Time
	halfOpenCount int // trial admissions granted in the current half-open phase
	halfOpenOK    int // trial successes observed in the current half-open phase
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 || config.FailureThreshold > 1 {
		config.FailureThreshold = 0.5
	}
	if config.MinCalls <= 0 {
		config.MinCalls = 5
	}
	if config.Window <= 0 {
		config.Window = 10 * time.Second
	}
	if config.WindowBuckets <= 0 {
		config.WindowBuckets = 10
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}
	if config.CooldownMultiplier < 1 {
		config.CooldownMultiplier = 2.0
	}
	if config.MaxCooldown <= 0 {
		config.MaxCooldown = 5 * time.Minute
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		// External cancellation says nothing about the dependency's health.
		config.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}

	return &CircuitBreaker{
		config:   config,
		state:    StateClosed,
		window:   newWindow(config.Window, config.WindowBuckets, time.Now()),
		cooldown: config.Cooldown,
	}
}

// Allow reports whether a call may proceed. It returns nil when the call is
// permitted and ErrCircuitOpen when it must be rejected without invoking the
// operation. When the cooldown of an open circuit has elapsed, Allow
// atomically transitions to half-open and admits at most
// HalfOpenMaxRequests callers; everyone else keeps seeing ErrCircuitOpen
// until the trial outcomes resolve the state.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked(time.Now()) {
	case StateClosed:
		return nil
	case StateHalfOpen:
		if cb.halfOpenCount >= cb.config.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		cb.halfOpenCount++
		return nil
	default:
		return ErrCircuitOpen
	}
}

// OnSuccess records a successful call outcome.
func (cb *CircuitBreaker) OnSuccess() {
	cb.afterRequest(nil)
}

// OnFailure records a failed call outcome. The configured IsFailure
// classification decides whether err actually counts against the circuit.
func (cb *CircuitBreaker) OnFailure(err error) {
	cb.afterRequest(err)
}

// Execute runs the operation through the circuit breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.Allow(); err != nil {
		return err
	}

	err := op(ctx)
	cb.afterRequest(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked(time.Now())
}

// Reset resets the circuit breaker to closed state with an empty window and
// the base cooldown.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = StateClosed
	cb.window.reset(time.Now())
	cb.cooldown = cb.config.Cooldown
	cb.halfOpenCount = 0
	cb.halfOpenOK = 0

	if oldState != StateClosed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(oldState, StateClosed)
	}
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	isFailure := cb.config.IsFailure(err)

	// An error classified as a non-failure is an abandoned call, not an
	// answered one. It resolves in neither direction: nothing is recorded
	// in the window, and a half-open trial slot goes back so another probe
	// can produce a real outcome.
	if err != nil && !isFailure {
		if cb.state == StateHalfOpen && cb.halfOpenCount > 0 {
			cb.halfOpenCount--
		}
		return
	}

	oldState := cb.state

	switch cb.state {
	case StateClosed:
		cb.window.record(now, !isFailure)
		if isFailure {
			total, rate := cb.window.snapshot(now)
			if total >= cb.config.MinCalls && rate >= cb.config.FailureThreshold {
				cb.openLocked(now)
			}
		}

	case StateHalfOpen:
		if isFailure {
			// Failed during probe: back to open with a longer cooldown.
			cb.cooldown = time.Duration(float64(cb.cooldown) * cb.config.CooldownMultiplier)
			if cb.cooldown > cb.config.MaxCooldown {
				cb.cooldown = cb.config.MaxCooldown
			}
			cb.openLocked(now)
		} else {
			cb.halfOpenOK++
			if cb.halfOpenOK >= cb.config.HalfOpenMaxRequests {
				// Recovered: close with a clean window and the base cooldown.
				cb.state = StateClosed
				cb.window.reset(now)
				cb.cooldown = cb.config.Cooldown
				cb.halfOpenCount = 0
				cb.halfOpenOK = 0
			}
		}

	case StateOpen:
		// An outcome from a call admitted before the circuit opened.
		// The window already condemned this period; drop it.
	}

	if oldState != cb.state && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(oldState, cb.state)
	}
}

// currentStateLocked resolves the effective state, lazily transitioning an
// expired open circuit to half-open. Caller must hold cb.mu.
func (cb *CircuitBreaker) currentStateLocked(now time.Time) State {
	if cb.state == StateOpen && now.Sub(cb.openedAt) >= cb.cooldown {
		cb.state = StateHalfOpen
		cb.halfOpenCount = 0
		cb.halfOpenOK = 0
		if cb.config.OnStateChange != nil {
			cb.config.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return cb.state
}

func (cb *CircuitBreaker) openLocked(now time.Time) {
	cb.state = StateOpen
	cb.openedAt = now
	cb.halfOpenCount = 0
	cb.halfOpenOK = 0
}

// Metrics returns current circuit breaker statistics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state := cb.currentStateLocked(now)
	total, rate := cb.window.snapshot(now)

	return CircuitBreakerMetrics{
		State:       state,
		TotalCalls:  total,
		FailureRate: rate,
		Cooldown:    cb.cooldown,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State       State
	TotalCalls  int
	FailureRate float64
	Cooldown    time.Duration
}
