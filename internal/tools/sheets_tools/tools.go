package sheets_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/sheetgate/internal/instrumentation"
	"github.com/teemow/sheetgate/internal/server"
	"github.com/teemow/sheetgate/internal/sheets"
	"github.com/teemow/sheetgate/internal/tools/common"
)

const spreadsheetIDDescription = "Spreadsheet ID (default: the server's configured spreadsheet)"

// RegisterSheetsTools registers the Sheets tools. Write tools are skipped
// when readOnly is set.
func RegisterSheetsTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getValuesTool := mcp.NewTool("sheets_get_values",
		mcp.WithDescription("Read the formatted cell values of a range. Returns a JSON array of rows; trailing empty cells are omitted."),
		mcp.WithString("spreadsheet_id", mcp.Description(spreadsheetIDDescription)),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("A1 range, e.g. 'Sheet1!A1:C10'"),
		),
	)
	s.AddTool(getValuesTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler("sheets_get_values", instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetValues(ctx, request, sc)
		})))

	listSheetsTool := mcp.NewTool("sheets_list_sheets",
		mcp.WithDescription("List the sheet tabs of a spreadsheet with their IDs and names"),
		mcp.WithString("spreadsheet_id", mcp.Description(spreadsheetIDDescription)),
		mcp.WithBoolean("include_data",
			mcp.Description("Also return each sheet's cell values (default: false, can be large)"),
		),
	)
	s.AddTool(listSheetsTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler("sheets_list_sheets", instrumentation.OperationListSheets, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListSheets(ctx, request, sc)
		})))

	if readOnly {
		return nil
	}

	updateValuesTool := mcp.NewTool("sheets_update_values",
		mcp.WithDescription("Overwrite a range with rows. Values are interpreted as if typed by a user."),
		mcp.WithString("spreadsheet_id", mcp.Description(spreadsheetIDDescription)),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("A1 range to overwrite, e.g. 'Sheet1!A1:B2'"),
		),
		mcp.WithArray("rows",
			mcp.Required(),
			mcp.Description("Rows to write, each an array of strings or numbers"),
			mcp.Items(map[string]any{"type": "array"}),
		),
	)
	s.AddTool(updateValuesTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler("sheets_update_values", instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateValues(ctx, request, sc)
		})))

	appendRowsTool := mcp.NewTool("sheets_append_rows",
		mcp.WithDescription("Append rows after the last populated row of a range. Values are interpreted as if typed by a user."),
		mcp.WithString("spreadsheet_id", mcp.Description(spreadsheetIDDescription)),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("A1 range identifying the table, e.g. 'Sheet1!A:D'"),
		),
		mcp.WithArray("rows",
			mcp.Required(),
			mcp.Description("Rows to append, each an array of strings or numbers"),
			mcp.Items(map[string]any{"type": "array"}),
		),
	)
	s.AddTool(appendRowsTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler("sheets_append_rows", instrumentation.OperationAppend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAppendRows(ctx, request, sc)
		})))

	createSheetTool := mcp.NewTool("sheets_create_sheet",
		mcp.WithDescription("Create a new sheet tab with a frozen header row"),
		mcp.WithString("spreadsheet_id", mcp.Description(spreadsheetIDDescription)),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Title of the new sheet"),
		),
	)
	s.AddTool(createSheetTool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler("sheets_create_sheet", instrumentation.OperationCreateSheet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateSheet(ctx, request, sc)
		})))

	return nil
}

func getClient(args map[string]interface{}, sc *server.ServerContext) (*sheets.Client, error) {
	return sc.SheetsClient(common.GetSpreadsheetIDFromArgs(args))
}

func handleGetValues(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	rng, err := common.RequiredString(args, "range")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getClient(args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	values, err := client.Get(ctx, rng)
	if err != nil {
		return toolError("get values", err), nil
	}

	return jsonResult(values)
}

func handleListSheets(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, err := getClient(args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos, err := client.ListSheets(ctx, common.OptionalBool(args, "include_data", false))
	if err != nil {
		return toolError("list sheets", err), nil
	}

	return jsonResult(infos)
}

type updateResult struct {
	UpdatedCells *int64 `json:"updated_cells"`
}

func handleUpdateValues(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	rng, err := common.RequiredString(args, "range")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := common.ParseRows(args["rows"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getClient(args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, err := client.Update(ctx, rng, rows)
	if err != nil {
		return toolError("update values", err), nil
	}

	return jsonResult(updateResult{UpdatedCells: updated})
}

func handleAppendRows(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	rng, err := common.RequiredString(args, "range")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := common.ParseRows(args["rows"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getClient(args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, err := client.Append(ctx, rng, rows)
	if err != nil {
		return toolError("append rows", err), nil
	}

	return jsonResult(updateResult{UpdatedCells: updated})
}

func handleCreateSheet(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := common.RequiredString(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getClient(args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := client.CreateSheet(ctx, name)
	if err != nil {
		return toolError("create sheet", err), nil
	}

	return jsonResult(info)
}

// toolError keeps authorization failures distinguishable from failed
// operations in the text the agent sees.
func toolError(action string, err error) *mcp.CallToolResult {
	if sheets.IsAuthorizationError(err) {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to authorize service account: %v", err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
