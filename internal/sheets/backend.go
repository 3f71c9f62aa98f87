package sheets

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const (
	valueRenderFormatted = "FORMATTED_VALUE"
	valueInputUser       = "USER_ENTERED"
	frozenHeaderRows     = 1
)

// Backend is the remote contract the client depends on.
type Backend interface {
	GetValues(ctx context.Context, spreadsheetID, rng string) (*sheetsapi.ValueRange, error)
	UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) (*sheetsapi.UpdateValuesResponse, error)
	AppendValues(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) (*sheetsapi.AppendValuesResponse, error)
	GetSpreadsheet(ctx context.Context, spreadsheetID string, includeGridData bool) (*sheetsapi.Spreadsheet, error)
	AddSheet(ctx context.Context, spreadsheetID, title string) (*sheetsapi.BatchUpdateSpreadsheetResponse, error)
}

// GoogleBackend implements Backend with the Sheets v4 API.
type GoogleBackend struct {
	service *sheetsapi.Service
}

// NewGoogleBackend creates a Sheets service authenticated by ts. opts are
// applied after the HTTP client, so option.WithEndpoint and
// option.WithHTTPClient can redirect it.
func NewGoogleBackend(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*GoogleBackend, error) {
	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	clientOpts := append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return &GoogleBackend{service: service}, nil
}

func (b *GoogleBackend) GetValues(ctx context.Context, spreadsheetID, rng string) (*sheetsapi.ValueRange, error) {
	return b.service.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption(valueRenderFormatted).
		Context(ctx).
		Do()
}

func (b *GoogleBackend) UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) (*sheetsapi.UpdateValuesResponse, error) {
	return b.service.Spreadsheets.Values.Update(spreadsheetID, rng, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption(valueInputUser).
		Context(ctx).
		Do()
}

func (b *GoogleBackend) AppendValues(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) (*sheetsapi.AppendValuesResponse, error) {
	return b.service.Spreadsheets.Values.Append(spreadsheetID, rng, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption(valueInputUser).
		Context(ctx).
		Do()
}

func (b *GoogleBackend) GetSpreadsheet(ctx context.Context, spreadsheetID string, includeGridData bool) (*sheetsapi.Spreadsheet, error) {
	return b.service.Spreadsheets.Get(spreadsheetID).
		IncludeGridData(includeGridData).
		Context(ctx).
		Do()
}

func (b *GoogleBackend) AddSheet(ctx context.Context, spreadsheetID, title string) (*sheetsapi.BatchUpdateSpreadsheetResponse, error) {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{
					Title: title,
					GridProperties: &sheetsapi.GridProperties{
						FrozenRowCount: frozenHeaderRows,
					},
				},
			},
		}},
	}
	return b.service.Spreadsheets.BatchUpdate(spreadsheetID, req).
		Context(ctx).
		Do()
}
