package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestStatus_String covers the status string mapping.
func TestStatus_String(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tc := range cases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

// TestResultConstructors verifies the result helper functions.
func TestResultConstructors(t *testing.T) {
	r := Healthy("all good")
	if r.Status != StatusHealthy {
		t.Errorf("Healthy status = %v, want StatusHealthy", r.Status)
	}
	if r.Message != "all good" {
		t.Errorf("Healthy message = %q, want 'all good'", r.Message)
	}
	if r.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	r = Degraded("slow")
	if r.Status != StatusDegraded {
		t.Errorf("Degraded status = %v, want StatusDegraded", r.Status)
	}

	checkErr := errors.New("boom")
	r = Unhealthy("down", checkErr)
	if r.Status != StatusUnhealthy {
		t.Errorf("Unhealthy status = %v, want StatusUnhealthy", r.Status)
	}
	if !errors.Is(r.Error, checkErr) {
		t.Errorf("Unhealthy error = %v, want %v", r.Error, checkErr)
	}
}

// TestResult_WithDetails verifies detail and duration chaining.
func TestResult_WithDetails(t *testing.T) {
	r := Healthy("ok").
		WithDetails(map[string]any{"calls": 10}).
		WithDuration(50 * time.Millisecond)

	if r.Details["calls"] != 10 {
		t.Errorf("details[calls] = %v, want 10", r.Details["calls"])
	}
	if r.Duration != 50*time.Millisecond {
		t.Errorf("duration = %v, want 50ms", r.Duration)
	}
}

// TestCheckerFunc verifies the function adapter.
func TestCheckerFunc(t *testing.T) {
	called := false
	checker := NewCheckerFunc("custom", func(ctx context.Context) Result {
		called = true
		return Healthy("ok")
	})

	if checker.Name() != "custom" {
		t.Errorf("Name() = %q, want custom", checker.Name())
	}

	result := checker.Check(context.Background())
	if !called {
		t.Fatal("check function was not invoked")
	}
	if result.Status != StatusHealthy {
		t.Errorf("status = %v, want StatusHealthy", result.Status)
	}
}
