package rangemap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FirstDataRow is the lowest row that may hold data; row 1 is the header.
const FirstDataRow = 2

// DeleteRange removes rows [StartIndex, EndIndex) (0-based, end exclusive)
// of a sheet.
type DeleteRange struct {
	SheetID    int64
	StartIndex int64
	EndIndex   int64
}

// Row returns the 1-based sheet row the range deletes.
func (d DeleteRange) Row() int { return int(d.EndIndex) }

// DeleteRequests turns row numbers into delete ranges ordered from the
// highest row to the lowest, so that no deletion shifts a row still pending
// in the same batch. Duplicate rows are deleted once.
func DeleteRequests(sheetID int64, rows []int) []DeleteRange {
	uniq := make([]int, 0, len(rows))
	seen := make(map[int]bool, len(rows))
	for _, r := range rows {
		if !seen[r] {
			seen[r] = true
			uniq = append(uniq, r)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(uniq)))
	out := make([]DeleteRange, len(uniq))
	for i, r := range uniq {
		out[i] = DeleteRange{SheetID: sheetID, StartIndex: int64(r - 1), EndIndex: int64(r)}
	}
	return out
}

// ParseUpdatedRow extracts the first row number of an A1 range such as
// "Sheet1!A5:C6" or "'My Sheet'!B12".
func ParseUpdatedRow(updatedRange string) (int, error) {
	ref := updatedRange
	if i := strings.LastIndexByte(ref, '!'); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		ref = ref[:i]
	}
	digits := strings.TrimLeft(ref, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz$")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("no row number in range %q", updatedRange)
	}
	return n, nil
}
