// Package health provides health checking primitives for guarded dependencies.
//
// This package implements a generic health checking framework layered on top
// of the resilience engine. It provides interfaces for defining health
// checks, checkers that read circuit breaker and bulkhead state, aggregation
// of results from multiple checkers, and HTTP endpoints for probes.
//
// # Core Concepts
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy.
//
// # Basic Usage
//
//	// Report circuit breaker state as health
//	cbCheck := health.NewCircuitChecker("orders", breaker)
//
//	result := cbCheck.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("orders circuit open: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single composite check:
//
//	agg := health.NewAggregator()
//	agg.Register("orders-circuit", health.NewCircuitChecker("orders", breaker))
//	agg.Register("orders-bulkhead", health.NewBulkheadChecker("orders", bulkhead))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
// The package provides HTTP handlers for common health check patterns:
//
//	// Liveness probe (for Kubernetes)
//	http.Handle("/healthz", health.LivenessHandler())
//
//	// Readiness probe with component checks
//	http.Handle("/readyz", health.ReadinessHandler(aggregator))
//
//	// Detailed health status
//	http.Handle("/health", health.DetailedHandler(aggregator))
package health
