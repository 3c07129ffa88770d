package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pegasusheavy/armature-sub002/resilience"
)

func ExampleNewCircuitBreaker() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 0.5,
		MinCalls:         5,
		Cooldown:         time.Second,
	})

	ctx := context.Background()
	err := cb.Execute(ctx, func(ctx context.Context) error {
		// Simulated successful operation
		return nil
	})

	if err == nil {
		fmt.Println("Operation succeeded")
	}
	// Output:
	// Operation succeeded
}

func ExampleCircuitBreaker_State() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 0.5,
		MinCalls:         2,
		Cooldown:         time.Minute,
	})

	ctx := context.Background()

	// Initial state is closed
	fmt.Println("Initial state:", cb.State())

	// Cause failures to open the circuit
	simulatedErr := errors.New("service unavailable")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error {
			return simulatedErr
		})
	}

	fmt.Println("After failures:", cb.State())

	// Reset the circuit
	cb.Reset()
	fmt.Println("After reset:", cb.State())
	// Output:
	// Initial state: closed
	// After failures: open
	// After reset: closed
}

func ExampleNewCircuitBreaker_withStateChange() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 0.5,
		MinCalls:         1,
		Cooldown:         time.Minute,
		OnStateChange: func(from, to resilience.State) {
			fmt.Printf("Circuit changed: %s -> %s\n", from, to)
		},
	})

	ctx := context.Background()
	simulatedErr := errors.New("failure")

	// Trigger circuit open
	_ = cb.Execute(ctx, func(ctx context.Context) error {
		return simulatedErr
	})
	// Output:
	// Circuit changed: closed -> open
}

func ExampleNewRetry() {
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		Strategy:     resilience.BackoffExponential,
		Jitter:       resilience.JitterNone, // Disabled for predictable example
	})

	ctx := context.Background()
	attempts := 0

	err := retry.Execute(ctx, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary failure")
		}
		return nil // Success on third attempt
	})

	fmt.Println("Attempts:", attempts)
	fmt.Println("Error:", err)
	// Output:
	// Attempts: 3
	// Error: <nil>
}

func ExampleNewBulkhead() {
	b := resilience.NewBulkhead(resilience.BulkheadConfig{
		MaxConcurrent: 2,
	})

	ctx := context.Background()
	permit, err := b.Acquire(ctx)
	if err != nil {
		fmt.Println("rejected:", err)
		return
	}
	defer permit.Release()

	fmt.Println("Active:", b.Metrics().Active)
	// Output:
	// Active: 1
}

func ExampleNewFallback() {
	fallback := resilience.NewFallback(
		resilience.Handler{
			Match: func(err error) bool { return errors.Is(err, resilience.ErrCircuitOpen) },
			Handle: func(ctx context.Context, err error) error {
				fmt.Println("Serving cached response")
				return nil
			},
		},
	)

	executor := resilience.NewExecutor(
		resilience.WithFallback(fallback),
	)
	_ = executor

	err := fallback.Resolve(context.Background(), resilience.ErrCircuitOpen)
	fmt.Println("Error:", err)
	// Output:
	// Serving cached response
	// Error: <nil>
}

func ExampleNewExecutor() {
	executor := resilience.NewExecutor(
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 10})),
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 0.5,
			MinCalls:         5,
			Cooldown:         30 * time.Second,
		})),
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
		})),
		resilience.WithTimeout(2*time.Second),
	)

	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		return nil // Call the downstream dependency here.
	})

	fmt.Println("Error:", err)
	// Output:
	// Error: <nil>
}

func ExampleRun() {
	executor := resilience.NewExecutor(
		resilience.WithTimeout(time.Second),
	)

	value, err := resilience.Run(context.Background(), executor, func(ctx context.Context) (string, error) {
		return "payload", nil
	})

	fmt.Println(value, err)
	// Output:
	// payload <nil>
}

func ExampleNewRegistry() {
	registry := resilience.NewRegistry()

	_ = registry.Configure("billing",
		resilience.WithTimeout(time.Second),
	)

	err := registry.Execute(context.Background(), "billing", func(ctx context.Context) error {
		return nil
	})

	fmt.Println("Error:", err)
	// Output:
	// Error: <nil>
}

func ExampleParseConfig() {
	cfg, err := resilience.ParseConfig([]byte(`
retry:
  max_attempts: 4
  initial_delay: 100ms
  strategy: exponential
timeout: 2s
`))
	if err != nil {
		fmt.Println("parse:", err)
		return
	}

	executor, err := resilience.NewExecutorFromConfig(cfg)
	if err != nil {
		fmt.Println("build:", err)
		return
	}

	err = executor.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	fmt.Println("Error:", err)
	// Output:
	// Error: <nil>
}
