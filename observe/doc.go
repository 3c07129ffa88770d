// Package observe provides observability primitives for guarded calls.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into an Executor via
// Middleware, which wraps calls with tracing, metrics, and logging and
// bridges the engine's hooks onto telemetry instruments.
package observe
