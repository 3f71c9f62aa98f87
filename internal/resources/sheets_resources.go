package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/sheetgate/internal/server"
)

const (
	StatusURI = "sheetgate://status"
	SheetsURI = "sheetgate://spreadsheet/sheets"
)

// Status is the document served at StatusURI.
type Status struct {
	DefaultSpreadsheetID string               `json:"default_spreadsheet_id,omitempty"`
	ReadOnly             bool                 `json:"read_only"`
	Clients              []server.ClientState `json:"clients"`
}

// RegisterSheetsResources registers the status and sheet listing resources.
func RegisterSheetsResources(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	statusResource := mcp.NewResource(
		StatusURI,
		"Server Status",
		mcp.WithResourceDescription("Default spreadsheet, write mode and the authorization state of each spreadsheet client"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(statusResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleStatus(ctx, request, sc, readOnly)
	})

	sheetsResource := mcp.NewResource(
		SheetsURI,
		"Sheet Tabs",
		mcp.WithResourceDescription("IDs and names of the sheet tabs in the default spreadsheet"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(sheetsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSheets(ctx, request, sc)
	})

	return nil
}

func handleStatus(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext, readOnly bool) ([]mcp.ResourceContents, error) {
	status := Status{
		DefaultSpreadsheetID: sc.DefaultSpreadsheetID(),
		ReadOnly:             readOnly,
		Clients:              sc.ClientStates(),
	}
	return jsonContents(request.Params.URI, status)
}

func handleSheets(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	client, err := sc.SheetsClient("")
	if err != nil {
		return nil, err
	}

	infos, err := client.ListSheets(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	return jsonContents(request.Params.URI, infos)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
