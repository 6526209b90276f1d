// Package oteladapters implements the shell observability contracts with OpenTelemetry.
//
//   - SlogBridgeLogger: shell.Logger and shell.ContextualLogger via the otelslog bridge (trace correlated)
//   - OTelLogger: shell.ContextualLogger via the OpenTelemetry log API
//   - MetricsCollector: shell.ContextualMetricsCollector via OpenTelemetry histograms, counters and gauges
//   - TracingCollector: shell.TracingCollector via OpenTelemetry spans
package oteladapters
