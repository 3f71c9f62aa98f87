// Package resources provides MCP resources for sheetgate.
//
// Resources are read-only documents an MCP client can fetch without calling
// a tool: the server status with the authorization state of every cached
// spreadsheet client, and the sheet tabs of the default spreadsheet.
package resources
