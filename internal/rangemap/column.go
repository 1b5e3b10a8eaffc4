// Package rangemap maps a sheet's header row to A1 ranges and converts
// between raw cell grids and typed records.
//
// Everything here is pure: no remote calls, no shared state. The header row
// is re-read on every request and handed in as a Header.
package rangemap

import (
	"fmt"
	"strings"
)

// DefaultMaxColumns is the rightmost column ("EE") scanned when the caller
// does not supply a bound.
const DefaultMaxColumns = 135

// ColumnLetter converts a 1-based column number to its spreadsheet letters
// (1 -> "A", 26 -> "Z", 27 -> "AA"). The encoding is bijective base-26:
// there is no zero digit. It returns "" for n < 1.
func ColumnLetter(n int) string {
	if n < 1 {
		return ""
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}

// ColumnNumber is the inverse of ColumnLetter. Letters are case-insensitive.
func ColumnNumber(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("empty column letters")
	}
	n := 0
	for _, r := range strings.ToUpper(letters) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column letters %q", letters)
		}
		n = n*26 + int(r-'A') + 1
		if n > 1<<30 {
			return 0, fmt.Errorf("column letters %q out of range", letters)
		}
	}
	return n, nil
}

// QuoteSheet returns the sheet name as it must appear in an A1 range.
// Names made only of letters, digits and underscores (not starting with a
// digit) are left alone. Anything else is single-quoted with embedded quotes
// doubled.
func QuoteSheet(name string) string {
	plain := name != "" && !(name[0] >= '0' && name[0] <= '9')
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
