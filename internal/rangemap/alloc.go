package rangemap

// ValueWrite is one range/values pair of a batch value update.
type ValueWrite struct {
	Range  string
	Values Grid
}

// Allocation is a header extended with the columns a write introduces.
type Allocation struct {
	header Header
	added  []Column
	pos    map[string]int
}

// MergeColumns allocates a column for every key of records missing from h.
// Keys are visited record by record, left to right, and each new key gets
// the next free position exactly once: h.Len()+1, h.Len()+2, ...
func MergeColumns(h Header, records ...Cells) Allocation {
	a := Allocation{header: h, pos: make(map[string]int)}
	for _, rec := range records {
		for _, cell := range rec {
			if cell.Name == "" {
				continue
			}
			if _, ok := h.Lookup(cell.Name); ok {
				continue
			}
			if _, ok := a.pos[cell.Name]; ok {
				continue
			}
			a.pos[cell.Name] = len(a.added)
			a.added = append(a.added, Column{
				Name:  cell.Name,
				Index: h.Len() + 1 + len(a.added),
			})
		}
	}
	return a
}

// Added returns the newly allocated columns in allocation order.
func (a Allocation) Added() []Column { return a.added }

// Lookup finds name among existing and newly allocated columns.
func (a Allocation) Lookup(name string) (Column, bool) {
	if c, ok := a.header.Lookup(name); ok {
		return c, true
	}
	if i, ok := a.pos[name]; ok {
		return a.added[i], true
	}
	return Column{}, false
}

// Columns is the full positional column list: existing header names
// followed by the new ones.
func (a Allocation) Columns() []string {
	out := a.header.Names()
	for _, c := range a.added {
		out = append(out, c.Name)
	}
	return out
}

// HeaderWrites are the header cells to write for the new columns.
func (a Allocation) HeaderWrites(sheet string) []ValueWrite {
	out := make([]ValueWrite, 0, len(a.added))
	for _, c := range a.added {
		out = append(out, ValueWrite{
			Range:  CellRange(sheet, c.Index, 1),
			Values: Grid{{c.Name}},
		})
	}
	return out
}

// CellWrites are the single-cell writes patching one row with c.
// Every key of c must have been merged into a.
func (a Allocation) CellWrites(sheet string, row int, c Cells) []ValueWrite {
	out := make([]ValueWrite, 0, len(c))
	for _, cell := range c {
		col, ok := a.Lookup(cell.Name)
		if !ok {
			continue
		}
		v := cell.Value
		if v == nil {
			v = ""
		}
		out = append(out, ValueWrite{
			Range:  CellRange(sheet, col.Index, row),
			Values: Grid{{v}},
		})
	}
	return out
}
