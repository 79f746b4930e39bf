// Package observability groups the logging, metrics and tracing setup of the aggregator.
//
// Subpackages:
//   - logging: slog JSON logger and request-scoped loggers
//   - metrics: Prometheus collectors for API requests and provider calls
//   - tracing: OpenTelemetry tracer provider and span helpers
package observability
