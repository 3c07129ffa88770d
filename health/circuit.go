package health

import (
	"context"
	"fmt"

	"github.com/pegasusheavy/armature-sub002/resilience"
)

// CircuitChecker reports health based on a circuit breaker's state.
// A closed circuit is healthy, a half-open circuit is degraded while
// it probes the dependency, and an open circuit is unhealthy.
type CircuitChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewCircuitChecker creates a checker for the given circuit breaker.
func NewCircuitChecker(name string, breaker *resilience.CircuitBreaker) *CircuitChecker {
	return &CircuitChecker{name: name, breaker: breaker}
}

// Name returns the name of this checker.
func (c *CircuitChecker) Name() string {
	return c.name
}

// Check reports the circuit state and window statistics.
func (c *CircuitChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	m := c.breaker.Metrics()

	details := map[string]any{
		"state":        m.State.String(),
		"total_calls":  m.TotalCalls,
		"failure_rate": m.FailureRate,
		"cooldown":     m.Cooldown.String(),
	}

	switch m.State {
	case resilience.StateOpen:
		return Unhealthy(
			fmt.Sprintf("circuit open: failure rate %.2f", m.FailureRate),
			resilience.ErrCircuitOpen,
		).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit half-open, probing dependency").WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("circuit closed: %d calls in window", m.TotalCalls),
		).WithDetails(details)
	}
}

// BulkheadChecker reports health based on bulkhead saturation.
// The bulkhead is degraded when all permits are taken and callers are
// queued, since new work is waiting rather than executing.
type BulkheadChecker struct {
	name     string
	bulkhead *resilience.Bulkhead
}

// NewBulkheadChecker creates a checker for the given bulkhead.
func NewBulkheadChecker(name string, bulkhead *resilience.Bulkhead) *BulkheadChecker {
	return &BulkheadChecker{name: name, bulkhead: bulkhead}
}

// Name returns the name of this checker.
func (b *BulkheadChecker) Name() string {
	return b.name
}

// Check reports permit usage and queue depth.
func (b *BulkheadChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	m := b.bulkhead.Metrics()

	details := map[string]any{
		"active":         m.Active,
		"waiting":        m.Waiting,
		"available":      m.Available,
		"max_concurrent": m.MaxConcurrent,
		"rejected":       m.Rejected,
	}

	if m.Available == 0 && m.Waiting > 0 {
		return Degraded(
			fmt.Sprintf("bulkhead saturated: %d callers queued", m.Waiting),
		).WithDetails(details)
	}

	return Healthy(
		fmt.Sprintf("bulkhead ok: %d/%d permits in use", m.Active, m.MaxConcurrent),
	).WithDetails(details)
}

// RegistryChecker reports aggregate health over every named executor in
// a registry that carries a circuit breaker.
type RegistryChecker struct {
	name     string
	registry *resilience.Registry
}

// NewRegistryChecker creates a checker for the given executor registry.
func NewRegistryChecker(name string, registry *resilience.Registry) *RegistryChecker {
	return &RegistryChecker{name: name, registry: registry}
}

// Name returns the name of this checker.
func (r *RegistryChecker) Name() string {
	return r.name
}

// Check reports the worst circuit state across all registered executors.
func (r *RegistryChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	names := r.registry.Names()
	details := make(map[string]any, len(names))

	var openCount, halfOpenCount int
	for _, name := range names {
		exec, ok := r.registry.Get(name)
		if !ok {
			continue
		}
		cb := exec.CircuitBreaker()
		if cb == nil {
			details[name] = "no circuit breaker"
			continue
		}
		state := cb.State()
		details[name] = state.String()
		switch state {
		case resilience.StateOpen:
			openCount++
		case resilience.StateHalfOpen:
			halfOpenCount++
		}
	}

	switch {
	case openCount > 0:
		return Unhealthy(
			fmt.Sprintf("%d of %d circuits open", openCount, len(names)),
			resilience.ErrCircuitOpen,
		).WithDetails(details)
	case halfOpenCount > 0:
		return Degraded(
			fmt.Sprintf("%d of %d circuits half-open", halfOpenCount, len(names)),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("all %d circuits closed", len(names)),
		).WithDetails(details)
	}
}
