package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pegasusheavy/armature-sub002/resilience"
)

func newTestBreaker(t *testing.T) *resilience.CircuitBreaker {
	t.Helper()
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 0.5,
		MinCalls:         2,
		Window:           time.Minute,
		Cooldown:         20 * time.Millisecond,
	})
}

func tripBreaker(t *testing.T, cb *resilience.CircuitBreaker) {
	t.Helper()
	for i := 0; i < 4; i++ {
		if err := cb.Allow(); err != nil {
			break
		}
		cb.OnFailure(errors.New("dependency down"))
	}
	if cb.State() != resilience.StateOpen {
		t.Fatalf("expected open circuit, got %v", cb.State())
	}
}

// TestCircuitChecker_Closed verifies a closed circuit reports healthy.
func TestCircuitChecker_Closed(t *testing.T) {
	cb := newTestBreaker(t)
	checker := NewCircuitChecker("orders", cb)

	if checker.Name() != "orders" {
		t.Errorf("Name() = %q, want orders", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("status = %v, want StatusHealthy", result.Status)
	}
	if result.Details["state"] != "closed" {
		t.Errorf("details[state] = %v, want closed", result.Details["state"])
	}
}

// TestCircuitChecker_Open verifies an open circuit reports unhealthy.
func TestCircuitChecker_Open(t *testing.T) {
	cb := newTestBreaker(t)
	tripBreaker(t, cb)

	result := NewCircuitChecker("orders", cb).Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("status = %v, want StatusUnhealthy", result.Status)
	}
	if !errors.Is(result.Error, resilience.ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", result.Error)
	}
}

// TestCircuitChecker_HalfOpen verifies a probing circuit reports degraded.
func TestCircuitChecker_HalfOpen(t *testing.T) {
	cb := newTestBreaker(t)
	tripBreaker(t, cb)

	time.Sleep(30 * time.Millisecond) // past cooldown

	result := NewCircuitChecker("orders", cb).Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("status = %v, want StatusDegraded", result.Status)
	}
}

// TestCircuitChecker_CancelledContext verifies cancellation short-circuits.
func TestCircuitChecker_CancelledContext(t *testing.T) {
	cb := newTestBreaker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewCircuitChecker("orders", cb).Check(ctx)
	if result.Status != StatusUnhealthy {
		t.Errorf("status = %v, want StatusUnhealthy", result.Status)
	}
}

// TestBulkheadChecker_Healthy verifies an idle bulkhead reports healthy.
func TestBulkheadChecker_Healthy(t *testing.T) {
	b := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 2})
	checker := NewBulkheadChecker("orders", b)

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("status = %v, want StatusHealthy", result.Status)
	}
	if result.Details["max_concurrent"] != 2 {
		t.Errorf("details[max_concurrent] = %v, want 2", result.Details["max_concurrent"])
	}
}

// TestBulkheadChecker_Saturated verifies a full bulkhead with waiters reports
// degraded.
func TestBulkheadChecker_Saturated(t *testing.T) {
	b := resilience.NewBulkhead(resilience.BulkheadConfig{
		MaxConcurrent: 1,
		MaxQueue:      1,
		MaxWait:       time.Second,
	})

	permit, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer permit.Release()

	waiterDone := make(chan struct{})
	go func() {
		defer close(waiterDone)
		if p, err := b.Acquire(context.Background()); err == nil {
			p.Release()
		}
	}()

	// Wait for the second caller to enter the queue.
	deadline := time.Now().Add(time.Second)
	for b.Metrics().Waiting == 0 {
		if time.Now().After(deadline) {
			t.Fatal("waiter never queued")
		}
		time.Sleep(time.Millisecond)
	}

	result := NewBulkheadChecker("orders", b).Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("status = %v, want StatusDegraded", result.Status)
	}

	permit.Release()
	<-waiterDone
}

// TestRegistryChecker reports the worst circuit across the registry.
func TestRegistryChecker(t *testing.T) {
	reg := resilience.NewRegistry()

	healthy := newTestBreaker(t)
	broken := newTestBreaker(t)
	tripBreaker(t, broken)

	if err := reg.Configure("payments", resilience.WithCircuitBreaker(healthy)); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if err := reg.Configure("orders", resilience.WithCircuitBreaker(broken)); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	checker := NewRegistryChecker("circuits", reg)
	result := checker.Check(context.Background())

	if result.Status != StatusUnhealthy {
		t.Errorf("status = %v, want StatusUnhealthy", result.Status)
	}
	if result.Details["orders"] != "open" {
		t.Errorf("details[orders] = %v, want open", result.Details["orders"])
	}
	if result.Details["payments"] != "closed" {
		t.Errorf("details[payments] = %v, want closed", result.Details["payments"])
	}
}

// TestRegistryChecker_AllClosed verifies the healthy aggregate path.
func TestRegistryChecker_AllClosed(t *testing.T) {
	reg := resilience.NewRegistry()
	if err := reg.Configure("orders", resilience.WithCircuitBreaker(newTestBreaker(t))); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	result := NewRegistryChecker("circuits", reg).Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("status = %v, want StatusHealthy", result.Status)
	}
}

// TestRegistryChecker_NoBreaker verifies executors without breakers are noted.
func TestRegistryChecker_NoBreaker(t *testing.T) {
	reg := resilience.NewRegistry()
	if err := reg.Configure("orders", resilience.WithTimeout(time.Second)); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	result := NewRegistryChecker("circuits", reg).Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("status = %v, want StatusHealthy", result.Status)
	}
	if result.Details["orders"] != "no circuit breaker" {
		t.Errorf("details[orders] = %v, want 'no circuit breaker'", result.Details["orders"])
	}
}
