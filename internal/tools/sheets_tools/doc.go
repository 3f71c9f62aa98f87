// Package sheets_tools provides MCP tools for Google Sheets.
//
// # Available Tools
//
// Read (always registered):
//   - sheets_get_values: Read formatted values from a range
//   - sheets_list_sheets: List sheet tabs, optionally with their data
//
// Write (registered only when the server runs with --yolo):
//   - sheets_update_values: Overwrite a range with rows
//   - sheets_append_rows: Append rows after the last populated row
//   - sheets_create_sheet: Create a sheet tab with a frozen header row
//
// Every tool takes an optional spreadsheet_id; the server default is used
// when it is omitted. Values are written with user-entered semantics, so
// the service infers numbers, dates and formulas.
package sheets_tools
