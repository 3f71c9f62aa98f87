package sheets

// Row is one row of cell values in column order. Cells are strings or
// numbers on the way in and formatted strings (or nil) on the way out.
type Row []interface{}

// RangeResult is the rectangular region returned for a range. Rows may be
// ragged because trailing empty cells are omitted by the service.
type RangeResult []Row

// SheetInfo describes one sheet tab.
type SheetInfo struct {
	// ID is nil when the service omitted the sheet properties.
	ID *int64 `json:"id"`
	// Name is nil when the service omitted the sheet properties or title.
	Name *string `json:"name"`
	// Data holds the first grid's formatted values, only when requested.
	Data []Row `json:"data,omitempty"`
}

func toValues(rows []Row) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = []interface{}(r)
	}
	return values
}
