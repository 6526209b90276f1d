// Package testdoubles provides test doubles (spies) for the observability contracts and the sinks.
//
//   - MetricsCollectorSpy: captures metrics recording calls for verification
//   - TracingCollectorSpy: captures started and finished spans
//   - ContextualLoggerSpy and LoggerSpy: capture log calls per level
//   - NotificationSinkSpy and AuditSinkSpy: capture notifications and audit entries, optionally failing
//
// These test doubles enable testing of the instrumentation and the sink calls without telemetry backends or a database.
package testdoubles
