package sheets

import (
	sheetsapi "google.golang.org/api/sheets/v4"
)

// The functions below only walk replies that were already fetched. Absent
// fields turn into empty slices or nil, never errors.

func normalizeValues(vr *sheetsapi.ValueRange) RangeResult {
	if vr == nil || len(vr.Values) == 0 {
		return RangeResult{}
	}

	result := make(RangeResult, len(vr.Values))
	for i, values := range vr.Values {
		if values == nil {
			result[i] = Row{}
			continue
		}
		result[i] = Row(values)
	}
	return result
}

// updatedCount maps a reported cell count to an UpdateSummary. The JSON wire
// format drops zero values, so zero means unreported.
func updatedCount(n int64) *int64 {
	if n == 0 {
		return nil
	}
	return &n
}

func normalizeUpdate(resp *sheetsapi.UpdateValuesResponse) *int64 {
	if resp == nil {
		return nil
	}
	return updatedCount(resp.UpdatedCells)
}

func normalizeAppend(resp *sheetsapi.AppendValuesResponse) *int64 {
	if resp == nil || resp.Updates == nil {
		return nil
	}
	return updatedCount(resp.Updates.UpdatedCells)
}

func normalizeSheetProperties(props *sheetsapi.SheetProperties) SheetInfo {
	if props == nil {
		return SheetInfo{}
	}

	id := props.SheetId
	info := SheetInfo{ID: &id}
	if props.Title != "" {
		title := props.Title
		info.Name = &title
	}
	return info
}

// normalizeGridData keeps only the first grid block.
func normalizeGridData(grids []*sheetsapi.GridData) []Row {
	if len(grids) == 0 || grids[0] == nil || len(grids[0].RowData) == 0 {
		return nil
	}

	rows := make([]Row, len(grids[0].RowData))
	for i, rowData := range grids[0].RowData {
		if rowData == nil {
			rows[i] = Row{}
			continue
		}
		row := make(Row, len(rowData.Values))
		for j, cell := range rowData.Values {
			row[j] = formattedValue(cell)
		}
		rows[i] = row
	}
	return rows
}

func formattedValue(cell *sheetsapi.CellData) interface{} {
	if cell == nil || cell.FormattedValue == "" {
		return nil
	}
	return cell.FormattedValue
}

func normalizeSheets(spreadsheet *sheetsapi.Spreadsheet, includeData bool) []SheetInfo {
	if spreadsheet == nil {
		return []SheetInfo{}
	}

	infos := make([]SheetInfo, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet == nil {
			infos = append(infos, SheetInfo{})
			continue
		}
		info := normalizeSheetProperties(sheet.Properties)
		if includeData {
			info.Data = normalizeGridData(sheet.Data)
		}
		infos = append(infos, info)
	}
	return infos
}

func normalizeAddSheet(resp *sheetsapi.BatchUpdateSpreadsheetResponse) SheetInfo {
	if resp == nil || len(resp.Replies) == 0 || resp.Replies[0] == nil || resp.Replies[0].AddSheet == nil {
		return SheetInfo{}
	}
	return normalizeSheetProperties(resp.Replies[0].AddSheet.Properties)
}
