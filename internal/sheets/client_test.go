package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// fakeBackend stores written ranges as formatted strings, the way the
// service renders user-entered values.
type fakeBackend struct {
	auth *fakeAuthorizer

	mu     sync.Mutex
	ranges map[string][][]interface{}

	calls             atomic.Int32
	unauthorizedCalls atomic.Int32

	err          error
	appendResp   *sheetsapi.AppendValuesResponse
	spreadsheet  *sheetsapi.Spreadsheet
	addSheetResp *sheetsapi.BatchUpdateSpreadsheetResponse
	lastGrid     bool
	lastTitle    string
}

func newFakeBackend(auth *fakeAuthorizer) *fakeBackend {
	return &fakeBackend{auth: auth, ranges: map[string][][]interface{}{}}
}

func (f *fakeBackend) record() error {
	f.calls.Add(1)
	if !f.auth.authorized.Load() {
		f.unauthorizedCalls.Add(1)
	}
	return f.err
}

func (f *fakeBackend) GetValues(ctx context.Context, spreadsheetID, rng string) (*sheetsapi.ValueRange, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sheetsapi.ValueRange{Range: rng, Values: f.ranges[rng]}, nil
}

func (f *fakeBackend) UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) (*sheetsapi.UpdateValuesResponse, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var cells int64
	formatted := make([][]interface{}, len(values))
	for i, row := range values {
		formatted[i] = make([]interface{}, len(row))
		for j, cell := range row {
			formatted[i][j] = fmt.Sprint(cell)
			cells++
		}
	}
	f.ranges[rng] = formatted
	return &sheetsapi.UpdateValuesResponse{UpdatedCells: cells}, nil
}

func (f *fakeBackend) AppendValues(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) (*sheetsapi.AppendValuesResponse, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return f.appendResp, nil
}

func (f *fakeBackend) GetSpreadsheet(ctx context.Context, spreadsheetID string, includeGridData bool) (*sheetsapi.Spreadsheet, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastGrid = includeGridData
	return f.spreadsheet, nil
}

func (f *fakeBackend) AddSheet(ctx context.Context, spreadsheetID, title string) (*sheetsapi.BatchUpdateSpreadsheetResponse, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.lastTitle = title
	return f.addSheetResp, nil
}

func newTestClient(t *testing.T) (*Client, *fakeAuthorizer, *fakeBackend) {
	t.Helper()
	auth := &fakeAuthorizer{}
	backend := newFakeBackend(auth)
	client, err := NewClient("spreadsheet-1", auth, backend)
	require.NoError(t, err)
	return client, auth, backend
}

func TestNewClient_Validation(t *testing.T) {
	auth := &fakeAuthorizer{}

	_, err := NewClient("  ", auth, newFakeBackend(auth))
	assert.True(t, IsConfigurationError(err))

	_, err = NewClient("id", nil, newFakeBackend(auth))
	assert.Error(t, err)

	_, err = NewClient("id", auth, nil)
	assert.Error(t, err)
}

func TestClient_GetMissingValues(t *testing.T) {
	client, _, _ := newTestClient(t)

	result, err := client.Get(context.Background(), "Sheet1!A1:B2")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestClient_UpdateThenGetRoundTrip(t *testing.T) {
	client, _, _ := newTestClient(t)
	ctx := context.Background()

	updated, err := client.Update(ctx, "Sheet1!A1:B2", []Row{{"name", 3}, {"other", "4"}})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, int64(4), *updated)

	result, err := client.Get(ctx, "Sheet1!A1:B2")
	require.NoError(t, err)
	assert.Equal(t, RangeResult{{"name", "3"}, {"other", "4"}}, result)
}

func TestClient_Append(t *testing.T) {
	client, _, backend := newTestClient(t)
	ctx := context.Background()

	updated, err := client.Append(ctx, "Sheet1!A:B", []Row{{"x", 1}})
	require.NoError(t, err)
	assert.Nil(t, updated)

	backend.appendResp = &sheetsapi.AppendValuesResponse{
		Updates: &sheetsapi.UpdateValuesResponse{UpdatedCells: 4},
	}
	updated, err = client.Append(ctx, "Sheet1!A:B", []Row{{"x", 1}, {"y", 2}})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, int64(4), *updated)
}

func TestClient_ListSheets(t *testing.T) {
	client, _, backend := newTestClient(t)
	ctx := context.Background()

	backend.spreadsheet = &sheetsapi.Spreadsheet{Sheets: []*sheetsapi.Sheet{{
		Properties: &sheetsapi.SheetProperties{SheetId: 0, Title: "Sheet1"},
		Data: []*sheetsapi.GridData{{RowData: []*sheetsapi.RowData{
			{Values: []*sheetsapi.CellData{{FormattedValue: "A"}}},
			{Values: []*sheetsapi.CellData{{}}},
		}}},
	}}}

	infos, err := client.ListSheets(ctx, false)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.False(t, backend.lastGrid)
	assert.Nil(t, infos[0].Data)
	assert.Equal(t, int64(0), *infos[0].ID)
	assert.Equal(t, "Sheet1", *infos[0].Name)

	infos, err = client.ListSheets(ctx, true)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.True(t, backend.lastGrid)
	assert.Equal(t, []Row{{"A"}, {nil}}, infos[0].Data)
}

func TestClient_CreateSheet(t *testing.T) {
	client, _, backend := newTestClient(t)
	ctx := context.Background()

	backend.addSheetResp = &sheetsapi.BatchUpdateSpreadsheetResponse{
		Replies: []*sheetsapi.Response{{AddSheet: &sheetsapi.AddSheetResponse{}}},
	}
	info, err := client.CreateSheet(ctx, "Notes")
	require.NoError(t, err)
	assert.Equal(t, "Notes", backend.lastTitle)
	assert.Nil(t, info.ID)
	assert.Nil(t, info.Name)

	data, err := json.Marshal(info)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":null,"name":null}`, string(data))

	backend.addSheetResp = &sheetsapi.BatchUpdateSpreadsheetResponse{
		Replies: []*sheetsapi.Response{{AddSheet: &sheetsapi.AddSheetResponse{
			Properties: &sheetsapi.SheetProperties{SheetId: 1234, Title: "Notes"},
		}}},
	}
	info, err = client.CreateSheet(ctx, "Notes")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), *info.ID)
	assert.Equal(t, "Notes", *info.Name)
}

func TestClient_InputValidation(t *testing.T) {
	client, auth, backend := newTestClient(t)
	ctx := context.Background()

	_, err := client.Get(ctx, "")
	assert.Error(t, err)
	_, err = client.Update(ctx, " ", nil)
	assert.Error(t, err)
	_, err = client.Append(ctx, "", nil)
	assert.Error(t, err)
	_, err = client.CreateSheet(ctx, "")
	assert.Error(t, err)

	assert.Equal(t, int32(0), auth.calls.Load())
	assert.Equal(t, int32(0), backend.calls.Load())
}

func TestClient_ConcurrentOperationsShareOneHandshake(t *testing.T) {
	client, auth, backend := newTestClient(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = client.Get(ctx, "Sheet1!A1")
			} else {
				_, err = client.ListSheets(ctx, false)
			}
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), auth.calls.Load())
	assert.Equal(t, int32(n), backend.calls.Load())
	assert.Equal(t, int32(0), backend.unauthorizedCalls.Load())
	assert.Equal(t, StateAuthorized, client.AuthorizationState())
}

func TestClient_ErrorKinds(t *testing.T) {
	t.Run("authorization failure", func(t *testing.T) {
		auth := &fakeAuthorizer{fn: func(context.Context, int32) error { return errors.New("invalid_grant") }}
		backend := newFakeBackend(auth)
		client, err := NewClient("spreadsheet-1", auth, backend)
		require.NoError(t, err)

		_, err = client.Get(context.Background(), "Sheet1!A1")
		require.Error(t, err)
		assert.True(t, IsAuthorizationError(err))
		assert.False(t, IsRemoteServiceError(err))
		assert.Equal(t, int32(0), backend.calls.Load())
		assert.Equal(t, StateUnauthenticated, client.AuthorizationState())
	})

	t.Run("remote failure", func(t *testing.T) {
		client, _, backend := newTestClient(t)
		backend.err = &googleapi.Error{Code: 403, Message: "The caller does not have permission"}

		_, err := client.CreateSheet(context.Background(), "Notes")
		require.Error(t, err)
		assert.False(t, IsAuthorizationError(err))

		var remoteErr *RemoteServiceError
		require.True(t, errors.As(err, &remoteErr))
		assert.Equal(t, "create_sheet", remoteErr.Operation)
		assert.Equal(t, 403, remoteErr.Code)
		assert.Equal(t, "The caller does not have permission", remoteErr.Message)
		assert.Equal(t, "sheets create_sheet failed with status 403: The caller does not have permission", err.Error())

		var apiErr *googleapi.Error
		assert.True(t, errors.As(err, &apiErr))
		assert.Equal(t, StateAuthorized, client.AuthorizationState())
	})

	t.Run("non-api failure", func(t *testing.T) {
		client, _, backend := newTestClient(t)
		backend.err = errors.New("connection reset")

		_, err := client.Append(context.Background(), "Sheet1!A:A", []Row{{"x"}})
		var remoteErr *RemoteServiceError
		require.True(t, errors.As(err, &remoteErr))
		assert.Equal(t, 0, remoteErr.Code)
		assert.Equal(t, "sheets append failed: connection reset", err.Error())
	})
}
