// Package instrumentation wires OpenTelemetry metrics and tracing into
// sheetgate.
//
// # Metrics
//
// Google API:
//   - google_api_operations_total{service,operation,status}
//   - google_api_operation_duration_seconds{service,operation,status}
//
// Authorization:
//   - sheets_authorization_handshakes_total{result}
//   - sheets_authorization_handshake_duration_seconds{result}
//
// MCP tools:
//   - mcp_tool_invocations_total{tool,status}
//   - mcp_tool_duration_seconds{tool,status}
//
// HTTP (streamable-http transport only):
//   - http_requests_total{method,path,status}
//   - http_request_duration_seconds{method,path,status}
//
// # Tracing
//
// Client spans are named google.sheets.<operation>; tool spans are named
// tool.<name>. Tracing is off unless TRACING_EXPORTER is set.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED (default true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default 0.1)
//   - OTEL_SERVICE_NAME (default sheetgate)
//
// A nil *Metrics is valid and records nothing, so library code can be used
// without a provider.
package instrumentation
