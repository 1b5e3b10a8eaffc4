package rangemap

import (
	"bytes"
	"strconv"
)

// Grid is a block of raw cell values as returned by the remote service.
// Rows may be ragged: trailing empty cells are usually omitted.
type Grid = [][]any

// FirstRow returns the first row of g, or nil when g is empty.
func FirstRow(g Grid) []any {
	if len(g) == 0 {
		return nil
	}
	return g[0]
}

// Column describes one header cell. Index is 1-based.
type Column struct {
	Name  string
	Index int
}

// Letter returns the column's spreadsheet letters.
func (c Column) Letter() string { return ColumnLetter(c.Index) }

// Header is the ordered list of columns read from row 1 of a sheet.
// Every raw position is kept so that column numbering matches the sheet,
// but only the first occurrence of a non-empty name is addressable.
type Header struct {
	cols []Column
	pos  map[string]int
}

// NewHeader builds a Header from the raw first row of a sheet.
func NewHeader(raw []any) Header {
	h := Header{
		cols: make([]Column, 0, len(raw)),
		pos:  make(map[string]int, len(raw)),
	}
	for i, v := range raw {
		name := CellString(v)
		h.cols = append(h.cols, Column{Name: name, Index: i + 1})
		if _, dup := h.pos[name]; name != "" && !dup {
			h.pos[name] = i
		}
	}
	return h
}

// HeaderOf is a convenience for building a Header from plain names.
func HeaderOf(names ...string) Header {
	raw := make([]any, len(names))
	for i, n := range names {
		raw[i] = n
	}
	return NewHeader(raw)
}

// Len is the number of occupied header positions, named or not.
func (h Header) Len() int { return len(h.cols) }

// IsEmpty reports whether the header has no addressable column.
func (h Header) IsEmpty() bool { return len(h.pos) == 0 }

// Lookup returns the column holding name.
func (h Header) Lookup(name string) (Column, bool) {
	i, ok := h.pos[name]
	if !ok {
		return Column{}, false
	}
	return h.cols[i], true
}

// Columns returns the addressable columns in sheet order.
func (h Header) Columns() []Column {
	out := make([]Column, 0, len(h.pos))
	for i, c := range h.cols {
		if c.Name != "" && h.pos[c.Name] == i {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the name at every header position, including blanks.
func (h Header) Names() []string {
	out := make([]string, len(h.cols))
	for i, c := range h.cols {
		out[i] = c.Name
	}
	return out
}

// ColumnRef names the range prefix of one column, e.g. "Sheet1!C".
type ColumnRef struct {
	Name  string
	Range string
}

// ColumnRefs marshals as a JSON object keyed by column name, in header order.
type ColumnRefs []ColumnRef

func (c ColumnRefs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ref := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, ref.Name, ref.Range); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Map returns the refs keyed by column name.
func (c ColumnRefs) Map() map[string]string {
	out := make(map[string]string, len(c))
	for _, ref := range c {
		out[ref.Name] = ref.Range
	}
	return out
}

// ColumnRanges lists the range prefix of every addressable column.
func ColumnRanges(sheet string, h Header) ColumnRefs {
	prefix := QuoteSheet(sheet) + "!"
	out := make(ColumnRefs, 0, len(h.pos))
	for _, c := range h.Columns() {
		out = append(out, ColumnRef{Name: c.Name, Range: prefix + c.Letter()})
	}
	return out
}

// HeaderRange is row 1 up to maxColumn: "Sheet1!A1:EE1".
func HeaderRange(sheet string, maxColumn int) string {
	return RowRange(sheet, 1, maxColumn)
}

// RowRange is a single row up to maxColumn: "Sheet1!A7:EE7".
func RowRange(sheet string, row, maxColumn int) string {
	r := strconv.Itoa(row)
	return QuoteSheet(sheet) + "!A" + r + ":" + ColumnLetter(maxColumn) + r
}

// SheetRange spans whole columns A..maxColumn: "Sheet1!A:EE".
func SheetRange(sheet string, maxColumn int) string {
	return QuoteSheet(sheet) + "!A:" + ColumnLetter(maxColumn)
}

// CellRange addresses one cell: "Sheet1!C7".
func CellRange(sheet string, col, row int) string {
	return QuoteSheet(sheet) + "!" + ColumnLetter(col) + strconv.Itoa(row)
}
