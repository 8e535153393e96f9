// Package tracing exposes the service's OpenTelemetry tracer and an HTTP
// middleware that opens a server span per request. Without a configured
// TracerProvider the global no-op provider is used and spans cost nothing.
package tracing
