package models

import (
	"encoding/json"

	"gsheet-api/internal/rangemap"
)

type SpreadsheetFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ModifiedTime string `json:"modifiedTime"`
}

type SheetInfo struct {
	Title       string `json:"title"`
	Index       int64  `json:"index"`
	SheetID     int64  `json:"sheetId"`
	RowCount    int64  `json:"rowCount"`
	ColumnCount int64  `json:"columnCount"`
}

type Pagination struct {
	PerPage    int    `json:"perPage"`
	Range      string `json:"range"`
	Offset     int    `json:"offset"`
	TotalItems int    `json:"totalItems"`
	HaveNext   bool   `json:"haveNext"`
}

// Page is one page of a sheet listing. Data holds rangemap.Record values,
// or raw cells when a single column was requested.
type Page struct {
	Columns    rangemap.ColumnRefs `json:"columns"`
	Pagination Pagination          `json:"pagination"`
	Data       []any               `json:"data"`
}

type UpdatedRange struct {
	SpreadsheetID  string `json:"spreadsheetId"`
	UpdatedRange   string `json:"updatedRange"`
	UpdatedRows    int64  `json:"updatedRows"`
	UpdatedColumns int64  `json:"updatedColumns"`
	UpdatedCells   int64  `json:"updatedCells"`
}

type AppendResult struct {
	TableRange   string `json:"tableRange"`
	UpdatedRange string `json:"updatedRange"`
	UpdatedRows  int64  `json:"updatedRows"`
}

type DeleteResult struct {
	SheetID     int64 `json:"sheetId"`
	DeletedRows []int `json:"deletedRows"` // in dispatch order, highest first
}

// AppendedRecord echoes an appended body with the row it landed on.
type AppendedRecord struct {
	RowNumber int
	Cells     rangemap.Cells
}

func (r AppendedRecord) MarshalJSON() ([]byte, error) {
	out := make(rangemap.Cells, 0, len(r.Cells)+1)
	for _, c := range r.Cells {
		if c.Name != rangemap.RowNumberKey {
			out = append(out, c)
		}
	}
	out = append(out, rangemap.Cell{Name: rangemap.RowNumberKey, Value: r.RowNumber})
	return json.Marshal(out)
}
