package rangemap

import (
	"bytes"
	"encoding/json"
)

// RowNumberKey is the reserved key carrying a record's sheet row.
const RowNumberKey = "rowNumber"

// Cell is one key/value pair of an incoming record. Value is nil, bool,
// string or json.Number.
type Cell struct {
	Name  string
	Value any
}

// Cells is an incoming record with its keys in the order the client sent them.
// Key order drives column allocation, so it is never a map.
type Cells []Cell

// Get returns the value stored under name.
func (c Cells) Get(name string) (any, bool) {
	for _, cell := range c {
		if cell.Name == name {
			return cell.Value, true
		}
	}
	return nil, false
}

// Keys returns the record's keys in order.
func (c Cells) Keys() []string {
	out := make([]string, len(c))
	for i, cell := range c {
		out[i] = cell.Name
	}
	return out
}

func (c Cells) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cell := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, cell.Name, cell.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Field is one decoded column of a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is a decoded data row, fields in header order.
type Record struct {
	RowNumber int
	Fields    []Field
}

// Get returns the decoded value of column name.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// IsBlank reports whether every field is Null.
func (r Record) IsBlank() bool {
	for _, f := range r.Fields {
		if !f.Value.IsNull() {
			return false
		}
	}
	return true
}

// MarshalJSON writes rowNumber first, then the fields in header order.
// A column literally named "rowNumber" is shadowed by the row number.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, RowNumberKey, r.RowNumber); err != nil {
		return nil, err
	}
	for _, f := range r.Fields {
		if f.Name == RowNumberKey {
			continue
		}
		buf.WriteByte(',')
		if err := writeMember(&buf, f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, name string, v any) error {
	k, err := json.Marshal(name)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// DecodeRow zips the header against one raw row. Header columns past the end
// of raw decode to Null; every present cell goes through DetectValue.
func DecodeRow(h Header, raw []any, rowNumber int) Record {
	cols := h.Columns()
	rec := Record{RowNumber: rowNumber, Fields: make([]Field, 0, len(cols))}
	for _, c := range cols {
		var v Value
		if i := c.Index - 1; i < len(raw) {
			v = DetectValue(CellString(raw[i]))
		}
		rec.Fields = append(rec.Fields, Field{Name: c.Name, Value: v})
	}
	return rec
}

// EncodeRow lays a record out along columns. Columns the record does not
// supply, or supplies as null, become "". A repeated column name is only
// filled at its first position.
func EncodeRow(columns []string, c Cells) []any {
	row := make([]any, len(columns))
	seen := make(map[string]bool, len(columns))
	for i, name := range columns {
		row[i] = ""
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if v, ok := c.Get(name); ok && v != nil {
			row[i] = v
		}
	}
	return row
}

// RawCell returns raw[idx], or nil when the row is too short.
func RawCell(raw []any, idx int) any {
	if idx < 0 || idx >= len(raw) {
		return nil
	}
	return raw[idx]
}
