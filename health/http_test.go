package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestLivenessHandler verifies the liveness probe always returns OK.
func TestLivenessHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	LivenessHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "OK" {
		t.Errorf("body = %q, want OK", body)
	}
}

// TestReadinessHandler_Healthy verifies a healthy aggregate returns OK.
func TestReadinessHandler_Healthy(t *testing.T) {
	agg := NewAggregator()
	agg.Register("ok", staticChecker("ok", Healthy("fine")))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	ReadinessHandler(agg)(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "OK" {
		t.Errorf("body = %q, want OK", body)
	}
}

// TestReadinessHandler_Degraded verifies a degraded aggregate still returns 200.
func TestReadinessHandler_Degraded(t *testing.T) {
	agg := NewAggregator()
	agg.Register("slow", staticChecker("slow", Degraded("queue backed up")))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	ReadinessHandler(agg)(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "DEGRADED" {
		t.Errorf("body = %q, want DEGRADED", body)
	}
}

// TestReadinessHandler_Unhealthy verifies an unhealthy aggregate returns 503.
func TestReadinessHandler_Unhealthy(t *testing.T) {
	agg := NewAggregator()
	agg.Register("down", staticChecker("down", Unhealthy("circuit open", errors.New("boom"))))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	ReadinessHandler(agg)(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// TestDetailedHandler verifies the JSON body shape.
func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register("ok", staticChecker("ok", Healthy("fine").WithDetails(map[string]any{"calls": 3})))
	agg.Register("down", staticChecker("down", Unhealthy("circuit open", errors.New("boom"))))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	DetailedHandler(agg)(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "unhealthy" {
		t.Errorf("overall status = %q, want unhealthy", resp.Status)
	}
	if len(resp.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(resp.Checks))
	}
	if resp.Checks["down"].Error != "boom" {
		t.Errorf("down error = %q, want boom", resp.Checks["down"].Error)
	}
	if resp.Checks["ok"].Status != "healthy" {
		t.Errorf("ok status = %q, want healthy", resp.Checks["ok"].Status)
	}
}

// TestSingleCheckHandler verifies the per-component endpoint.
func TestSingleCheckHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register("orders", staticChecker("orders", Degraded("probing")))

	req := httptest.NewRequest(http.MethodGet, "/health/orders", nil)
	rec := httptest.NewRecorder()

	SingleCheckHandler(agg, "orders")(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var resp CheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
}

// TestSingleCheckHandler_NotFound verifies unknown checkers return 404.
func TestSingleCheckHandler_NotFound(t *testing.T) {
	agg := NewAggregator()

	req := httptest.NewRequest(http.MethodGet, "/health/missing", nil)
	rec := httptest.NewRecorder()

	SingleCheckHandler(agg, "missing")(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Errorf("expected 'not found' in body, got: %s", rec.Body.String())
	}
}

// TestRegisterHandlers verifies all routes are mounted.
func TestRegisterHandlers(t *testing.T) {
	agg := NewAggregator()
	agg.Register("ok", staticChecker("ok", Healthy("fine")))

	mux := http.NewServeMux()
	RegisterHandlers(mux, agg)

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}
