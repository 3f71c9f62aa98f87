package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/teemow/sheetgate/internal/config"
	"github.com/teemow/sheetgate/internal/sheets"
)

type nopAuthorizer struct{}

func (nopAuthorizer) Authorize(context.Context) error { return nil }

type emptyBackend struct{}

func (emptyBackend) GetValues(context.Context, string, string) (*sheetsapi.ValueRange, error) {
	return &sheetsapi.ValueRange{}, nil
}

func (emptyBackend) UpdateValues(context.Context, string, string, [][]interface{}) (*sheetsapi.UpdateValuesResponse, error) {
	return &sheetsapi.UpdateValuesResponse{}, nil
}

func (emptyBackend) AppendValues(context.Context, string, string, [][]interface{}) (*sheetsapi.AppendValuesResponse, error) {
	return &sheetsapi.AppendValuesResponse{}, nil
}

func (emptyBackend) GetSpreadsheet(context.Context, string, bool) (*sheetsapi.Spreadsheet, error) {
	return &sheetsapi.Spreadsheet{}, nil
}

func (emptyBackend) AddSheet(context.Context, string, string) (*sheetsapi.BatchUpdateSpreadsheetResponse, error) {
	return &sheetsapi.BatchUpdateSpreadsheetResponse{}, nil
}

func countingFactory(created *atomic.Int32) ClientFactory {
	return func(ctx context.Context, spreadsheetID string) (*sheets.Client, error) {
		created.Add(1)
		return sheets.NewClient(spreadsheetID, nopAuthorizer{}, emptyBackend{})
	}
}

func TestServerContext_SheetsClientCaching(t *testing.T) {
	var created atomic.Int32
	sc, err := NewServerContext(context.Background(), Options{
		Config:        config.Config{SpreadsheetID: "default-id"},
		ClientFactory: countingFactory(&created),
	})
	require.NoError(t, err)

	a, err := sc.SheetsClient("")
	require.NoError(t, err)
	assert.Equal(t, "default-id", a.SpreadsheetID())

	b, err := sc.SheetsClient("default-id")
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := sc.SheetsClient("other-id")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, int32(2), created.Load())
}

func TestServerContext_NoDefaultSpreadsheet(t *testing.T) {
	var created atomic.Int32
	sc, err := NewServerContext(context.Background(), Options{ClientFactory: countingFactory(&created)})
	require.NoError(t, err)

	_, err = sc.SheetsClient("  ")
	assert.ErrorContains(t, err, "spreadsheet_id is required")
	assert.Equal(t, int32(0), created.Load())
}

func TestServerContext_FactoryErrorNotCached(t *testing.T) {
	calls := 0
	sc, err := NewServerContext(context.Background(), Options{
		ClientFactory: func(ctx context.Context, id string) (*sheets.Client, error) {
			calls++
			return nil, errors.New("no credentials")
		},
	})
	require.NoError(t, err)

	_, err = sc.SheetsClient("id")
	assert.ErrorContains(t, err, "no credentials")
	_, err = sc.SheetsClient("id")
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestServerContext_DefaultFactoryRequiresCredentials(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Options{
		Config: config.Config{SpreadsheetID: "id"},
	})
	require.NoError(t, err)

	_, err = sc.SheetsClient("")
	require.Error(t, err)
	assert.True(t, sheets.IsConfigurationError(err))
}

func TestServerContext_ClientStates(t *testing.T) {
	var created atomic.Int32
	sc, err := NewServerContext(context.Background(), Options{ClientFactory: countingFactory(&created)})
	require.NoError(t, err)

	b, err := sc.SheetsClient("b")
	require.NoError(t, err)
	_, err = sc.SheetsClient("a")
	require.NoError(t, err)

	_, err = b.Get(context.Background(), "Sheet1!A1")
	require.NoError(t, err)

	assert.Equal(t, []ClientState{
		{SpreadsheetID: "a", State: "unauthenticated"},
		{SpreadsheetID: "b", State: "authorized"},
	}, sc.ClientStates())
}

func TestServerContext_SetSheetsClient(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Options{})
	require.NoError(t, err)

	client, err := sheets.NewClient("manual", nopAuthorizer{}, emptyBackend{})
	require.NoError(t, err)
	sc.SetSheetsClient(client)

	got, err := sc.SheetsClient("manual")
	require.NoError(t, err)
	assert.Same(t, client, got)
}

func TestServerContext_Shutdown(t *testing.T) {
	var created atomic.Int32
	sc, err := NewServerContext(context.Background(), Options{ClientFactory: countingFactory(&created)})
	require.NoError(t, err)

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	_, err = sc.SheetsClient("id")
	assert.ErrorContains(t, err, "shutting down")
	assert.Empty(t, sc.ClientStates())
}
