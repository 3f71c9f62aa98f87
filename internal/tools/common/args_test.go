package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/sheetgate/internal/sheets"
)

func TestGetSpreadsheetIDFromArgs(t *testing.T) {
	assert.Equal(t, "", GetSpreadsheetIDFromArgs(nil))
	assert.Equal(t, "", GetSpreadsheetIDFromArgs(map[string]interface{}{"spreadsheet_id": 12}))
	assert.Equal(t, "abc", GetSpreadsheetIDFromArgs(map[string]interface{}{"spreadsheet_id": " abc "}))
}

func TestRequiredString(t *testing.T) {
	args := map[string]interface{}{"range": "Sheet1!A1", "blank": "  ", "num": 3}

	v, err := RequiredString(args, "range")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1!A1", v)

	for _, name := range []string{"blank", "num", "missing"} {
		_, err := RequiredString(args, name)
		assert.EqualError(t, err, name+" is required")
	}
}

func TestOptionalBool(t *testing.T) {
	args := map[string]interface{}{"yes": true, "str": "true"}
	assert.True(t, OptionalBool(args, "yes", false))
	assert.False(t, OptionalBool(args, "str", false))
	assert.True(t, OptionalBool(args, "missing", true))
}

func TestParseRows(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    []sheets.Row
		wantErr string
	}{
		{
			name: "array of arrays",
			raw:  []interface{}{[]interface{}{"a", float64(1)}, []interface{}{true, nil}},
			want: []sheets.Row{{"a", float64(1)}, {true, ""}},
		},
		{
			name: "json string",
			raw:  `[["x", 2], ["y"]]`,
			want: []sheets.Row{{"x", float64(2)}, {"y"}},
		},
		{name: "invalid json", raw: `[["x"`, wantErr: "JSON array of arrays"},
		{name: "not an array", raw: map[string]interface{}{}, wantErr: "array of arrays"},
		{name: "empty", raw: []interface{}{}, wantErr: "must not be empty"},
		{name: "row not array", raw: []interface{}{"a"}, wantErr: "row 0 must be an array"},
		{name: "nested object", raw: []interface{}{[]interface{}{map[string]interface{}{}}}, wantErr: "row 0 column 0"},
		{name: "missing", raw: nil, wantErr: "array of arrays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseRows(tt.raw)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}
