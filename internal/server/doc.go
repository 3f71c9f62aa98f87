// Package server holds the shared state and HTTP plumbing of the sheetgate
// MCP server.
//
// ServerContext lazily builds one sheets.Client per spreadsheet ID and
// caches it, so every spreadsheet keeps its own authorization gate for the
// lifetime of the process. HealthChecker serves /healthz, /readyz and
// /healthz/detailed for the streamable HTTP transport. MetricsServer exposes
// Prometheus metrics on a dedicated port.
package server
