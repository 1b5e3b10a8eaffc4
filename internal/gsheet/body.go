package gsheet

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"gsheet-api/internal/apperr"
	"gsheet-api/internal/rangemap"
)

// RowPatch is the set of cells to write into one row.
type RowPatch struct {
	Row   int
	Cells rangemap.Cells
}

func parse(body []byte) (gjson.Result, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return gjson.Result{}, apperr.InvalidBody("Body is empty")
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, apperr.InvalidBody("Body is not valid JSON")
	}
	return gjson.ParseBytes(body), nil
}

// cellsOf walks a JSON object keeping its key order.
func cellsOf(obj gjson.Result) rangemap.Cells {
	var out rangemap.Cells
	obj.ForEach(func(key, value gjson.Result) bool {
		out = append(out, rangemap.Cell{Name: key.String(), Value: cellValue(value)})
		return true
	})
	return out
}

func cellValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(v.Raw)
	case gjson.String:
		return v.Str
	}
	// nested arrays and objects are stored as their JSON text
	return v.Raw
}

// ParseCells reads a flat JSON object.
func ParseCells(body []byte) (rangemap.Cells, error) {
	res, err := parse(body)
	if err != nil {
		return nil, err
	}
	if !res.IsObject() {
		return nil, apperr.InvalidBody("Body must be an object")
	}
	return cellsOf(res), nil
}

// ParseRecords reads either one JSON object or an array of objects.
// many reports which form was sent.
func ParseRecords(body []byte) (recs []rangemap.Cells, many bool, err error) {
	res, err := parse(body)
	if err != nil {
		return nil, false, err
	}
	switch {
	case res.IsObject():
		return []rangemap.Cells{cellsOf(res)}, false, nil
	case res.IsArray():
		bad := -1
		res.ForEach(func(_, value gjson.Result) bool {
			if !value.IsObject() {
				bad = len(recs)
				return false
			}
			recs = append(recs, cellsOf(value))
			return true
		})
		if bad >= 0 {
			return nil, true, apperr.InvalidBody("Element %d of body must be an object", bad)
		}
		return recs, true, nil
	}
	return nil, false, apperr.InvalidBody("Body must be an object or an array of objects")
}

// ParseRowPatches reads {"<row>": {...}, ...}, keeping the order rows were sent.
func ParseRowPatches(body []byte) ([]RowPatch, error) {
	res, err := parse(body)
	if err != nil {
		return nil, err
	}
	if !res.IsObject() {
		return nil, apperr.InvalidBody("Body must be an object keyed by row number")
	}
	var (
		out  []RowPatch
		perr error
	)
	res.ForEach(func(key, value gjson.Result) bool {
		row, err := ParseRowNumber(key.String())
		if err != nil {
			perr = err
			return false
		}
		if !value.IsObject() {
			perr = apperr.InvalidBody("Row %d must map to an object", row)
			return false
		}
		out = append(out, RowPatch{Row: row, Cells: cellsOf(value)})
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return out, nil
}

// ParseRowNumbers reads a JSON array of row numbers (numbers or numeric strings).
func ParseRowNumbers(body []byte) ([]int, error) {
	res, err := parse(body)
	if err != nil {
		return nil, err
	}
	if !res.IsArray() {
		return nil, apperr.InvalidBody("Body must be an array of row numbers")
	}
	var (
		out  []int
		perr error
	)
	res.ForEach(func(_, value gjson.Result) bool {
		var raw string
		switch value.Type {
		case gjson.Number, gjson.String:
			raw = strings.TrimSpace(value.String())
		default:
			perr = apperr.InvalidBody("Row numbers must be integers, got %s", value.Raw)
			return false
		}
		row, err := ParseRowNumber(raw)
		if err != nil {
			perr = err
			return false
		}
		out = append(out, row)
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return out, nil
}

// ParseRowNumber parses a data row number; rows start at 2.
func ParseRowNumber(s string) (int, error) {
	if s == "" {
		return 0, apperr.MissingParameter("rowNumber")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.InvalidParameter("rowNumber must be an integer, got %q", s)
	}
	if n < rangemap.FirstDataRow {
		return 0, apperr.InvalidParameter("rowNumber must be at least %d, got %d", rangemap.FirstDataRow, n)
	}
	return n, nil
}
