// Package cmd implements the command-line interface for sheetgate.
//
// This package provides the following commands:
//   - get, update, append: Read or write a range and print the result as JSON
//   - sheets, create-sheet: List sheet tabs or add a new one
//   - config init, config path: Write the config file or print its location
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Every command reads settings from the file named by --config, then the
// environment, then its own flags.
package cmd
