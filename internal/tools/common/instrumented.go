package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/sheetgate/internal/instrumentation"
	"github.com/teemow/sheetgate/internal/server"
)

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a server span, tool
// metrics and an audit log line. operation names the sheets operation the
// tool performs.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("sheets_get_values", instrumentation.OperationGet, sc, handler))
func InstrumentedToolHandler(toolName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		spreadsheetID := GetSpreadsheetIDFromArgs(request.GetArguments())
		if spreadsheetID == "" {
			spreadsheetID = sc.DefaultSpreadsheetID()
		}

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			attribute.String(instrumentation.SpanAttrOperation, operation),
			attribute.String(instrumentation.SpanAttrSpreadsheetID, spreadsheetID))
		defer span.End()

		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithSpreadsheet(spreadsheetID).
			WithOperation(operation)

		result, err := handler(ctx, request)

		switch {
		case err != nil:
			invocation.Complete(false, err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			invocation.Complete(false, nil)
			span.SetAttributes(attribute.Bool("mcp.tool.error_result", true))
		default:
			invocation.Complete(true, nil)
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), invocation.Duration)
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}
