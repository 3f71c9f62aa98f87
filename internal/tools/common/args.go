package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teemow/sheetgate/internal/sheets"
)

// GetSpreadsheetIDFromArgs returns the spreadsheet_id argument, or "" so
// the server default applies.
func GetSpreadsheetIDFromArgs(args map[string]interface{}) string {
	id, _ := args["spreadsheet_id"].(string)
	return strings.TrimSpace(id)
}

// RequiredString returns a non-empty string argument.
func RequiredString(args map[string]interface{}, name string) (string, error) {
	value, ok := args[name].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return value, nil
}

// OptionalBool returns a boolean argument, or def when absent.
func OptionalBool(args map[string]interface{}, name string, def bool) bool {
	if value, ok := args[name].(bool); ok {
		return value
	}
	return def
}

// ParseRows reads the rows argument. It accepts a JSON array of arrays or a
// string holding one. Cells must be strings, numbers or booleans.
func ParseRows(raw interface{}) ([]sheets.Row, error) {
	if s, ok := raw.(string); ok {
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("rows must be a JSON array of arrays: %w", err)
		}
		raw = decoded
	}

	outer, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("rows must be an array of arrays")
	}
	if len(outer) == 0 {
		return nil, fmt.Errorf("rows must not be empty")
	}

	rows := make([]sheets.Row, len(outer))
	for i, r := range outer {
		cells, ok := r.([]interface{})
		if !ok {
			return nil, fmt.Errorf("row %d must be an array", i)
		}
		row := make(sheets.Row, len(cells))
		for j, cell := range cells {
			switch cell.(type) {
			case string, float64, bool:
				row[j] = cell
			case nil:
				row[j] = ""
			default:
				return nil, fmt.Errorf("row %d column %d: unsupported cell type %T", i, j, cell)
			}
		}
		rows[i] = row
	}
	return rows, nil
}
