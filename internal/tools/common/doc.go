// Package common provides helpers shared by the MCP tool packages: argument
// extraction and the instrumented handler wrapper.
package common
