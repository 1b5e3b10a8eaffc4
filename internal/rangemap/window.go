package rangemap

import (
	"fmt"
	"strconv"
)

// Pagination defaults: the first data row and the page size.
const (
	DefaultOffset  = 2
	DefaultPerPage = 1000
)

// Window is a page of data rows. Offset is the first sheet row of the page.
type Window struct {
	Offset  int
	PerPage int
}

// NewWindow fills zero fields with defaults and rejects nonsensical values.
// defaultPerPage <= 0 means DefaultPerPage.
func NewWindow(offset, perPage, defaultPerPage int) (Window, error) {
	if defaultPerPage <= 0 {
		defaultPerPage = DefaultPerPage
	}
	w := Window{Offset: offset, PerPage: perPage}
	if w.Offset == 0 {
		w.Offset = DefaultOffset
	}
	if w.PerPage == 0 {
		w.PerPage = defaultPerPage
	}
	if w.Offset < 1 {
		return w, fmt.Errorf("offset must be positive, got %d", offset)
	}
	if w.PerPage < 1 {
		return w, fmt.Errorf("perPage must be positive, got %d", perPage)
	}
	return w, nil
}

func (w Window) FirstRow() int { return w.Offset }
func (w Window) LastRow() int  { return w.Offset + w.PerPage - 1 }

// DataRange is the page's cells: "Sheet1!A{first}:{max}{last}".
func (w Window) DataRange(sheet string, maxColumn int) string {
	return QuoteSheet(sheet) + "!A" + strconv.Itoa(w.FirstRow()) +
		":" + ColumnLetter(maxColumn) + strconv.Itoa(w.LastRow())
}

// HaveNext reports whether another page is expected. totalItems comes from
// CountItems over CountRange, so this is an approximation: it compares a
// row count from row 2 against the page end offset+perPage.
func (w Window) HaveNext(totalItems int) bool {
	return totalItems > w.Offset+w.PerPage
}

// CountRange is the unbounded column A from the first data row, read only to
// estimate the number of rows.
func CountRange(sheet string) string {
	return QuoteSheet(sheet) + "!A" + strconv.Itoa(DefaultOffset) + ":A"
}

// CountItems counts rows of a CountRange grid whose column A is non-empty.
func CountItems(g Grid) int {
	n := 0
	for _, row := range g {
		if len(row) > 0 && CellString(row[0]) != "" {
			n++
		}
	}
	return n
}
