package resilience

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors_Distinguishable(t *testing.T) {
	sentinels := []error{
		ErrCircuitOpen,
		ErrBulkheadFull,
		ErrTimeout,
		ErrMaxRetriesExceeded,
		ErrRateLimitExceeded,
		ErrAlreadyConfigured,
		ErrNotConfigured,
	}

	for i, err := range sentinels {
		for j, other := range sentinels {
			if (i == j) != errors.Is(err, other) {
				t.Errorf("errors.Is(%v, %v) = %v", err, other, i != j)
			}
		}
	}
}

func TestSentinelErrors_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("calling billing: %w", ErrCircuitOpen)
	if !errors.Is(wrapped, ErrCircuitOpen) {
		t.Errorf("errors.Is(wrapped, ErrCircuitOpen) = false, want true")
	}
}
