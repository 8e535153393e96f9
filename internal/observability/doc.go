// Package observability groups the service's logging, metrics and tracing.
//
// Subpackages:
//   - logging: slog setup plus run and request ID propagation
//   - metrics: Prometheus collectors for catalog calls, cache, scans and deliveries
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
