package instrumentation

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolInvocation(t *testing.T) {
	ti := NewToolInvocation("sheets_append_rows").
		WithSpreadsheet("sheet-123").
		WithOperation(OperationAppend)

	ti.Complete(false, errors.New("permission denied"))
	assert.Equal(t, StatusError, ti.Status())
	assert.Equal(t, "permission denied", ti.Error)
	assert.GreaterOrEqual(t, ti.Duration.Nanoseconds(), int64(0))

	keys := map[string]bool{}
	for _, a := range ti.LogAttrs() {
		keys[a.Key] = true
	}
	for _, k := range []string{"tool", "duration", "success", "spreadsheet_id", "operation", "error"} {
		assert.True(t, keys[k], "missing %s", k)
	}
	assert.False(t, keys["trace_id"])
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: true})

	al.LogToolInvocation(NewToolInvocation("sheets_get_values").Complete(true, nil))
	al.LogToolInvocation(NewToolInvocation("sheets_create_sheet").Complete(false, errors.New("exists")))

	out := buf.String()
	assert.Contains(t, out, "msg=tool_executed")
	assert.Contains(t, out, "tool=sheets_get_values")
	assert.Contains(t, out, "level=WARN msg=tool_failed")
	assert.Contains(t, out, "error=exists")
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation("x").Complete(true, nil))
	assert.Empty(t, buf.String())

	var nilLogger *AuditLogger
	assert.NotPanics(t, func() { nilLogger.LogToolInvocation(NewToolInvocation("x")) })
}
