package domain

import (
	"sort"
	"strings"
)

// Transformation methods return new tables and never mutate the receiver.
// The sandbox bridge and the fixed transformation recipes are built on
// them; execution-time column misses surface as *MissingColumnError.

// DropDuplicates removes rows whose cell-wise identical row appeared
// earlier, keeping first occurrences in order.
func (t *Table) DropDuplicates() *Table {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := t.RowKey(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	return t.selectRows(keep)
}

// DropNulls removes rows holding a nil cell in any of the named columns,
// or in any column at all when none are named.
func (t *Table) DropNulls(columns ...string) (*Table, error) {
	idx, err := t.columnIndexes(columns)
	if err != nil {
		return nil, err
	}
	keep := make([]int, 0, t.NumRows())
rows:
	for i := 0; i < t.NumRows(); i++ {
		for _, j := range idx {
			if t.Columns[j].Cells[i] == nil {
				continue rows
			}
		}
		keep = append(keep, i)
	}
	return t.selectRows(keep), nil
}

// FillNulls replaces nil cells with value in the named columns, or in every
// column when none are named.
func (t *Table) FillNulls(value any, columns ...string) (*Table, error) {
	idx, err := t.columnIndexes(columns)
	if err != nil {
		return nil, err
	}
	fill := make(map[int]bool, len(idx))
	for _, j := range idx {
		fill[j] = true
	}
	out := t.Clone()
	for j := range out.Columns {
		if !fill[j] {
			continue
		}
		for i, v := range out.Columns[j].Cells {
			if v == nil {
				out.Columns[j].Cells[i] = value
			}
		}
	}
	return out, nil
}

// Rename maps old column names to new ones. Every key must name an existing
// column and the result must keep names unique.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	for old := range mapping {
		if t.ColumnIndex(old) < 0 {
			return nil, &MissingColumnError{Name: old}
		}
	}
	out := t.Clone()
	for j := range out.Columns {
		if renamed, ok := mapping[out.Columns[j].Name]; ok {
			out.Columns[j].Name = renamed
		}
	}
	seen := make(map[string]struct{}, len(out.Columns))
	for _, c := range out.Columns {
		if _, dup := seen[c.Name]; dup {
			return nil, ErrValidation("rename produces duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return out, nil
}

// Select keeps only the named columns, in the order given.
func (t *Table) Select(names []string) (*Table, error) {
	if len(names) == 0 {
		return nil, ErrValidation("select requires at least one column")
	}
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		c, ok := t.ColumnByName(name)
		if !ok {
			return nil, &MissingColumnError{Name: name}
		}
		cells := make([]any, len(c.Cells))
		copy(cells, c.Cells)
		cols = append(cols, Column{Name: c.Name, Cells: cells})
	}
	return NewTable(cols...)
}

// DropColumns removes the named columns. Dropping every column is invalid.
func (t *Table) DropColumns(names []string) (*Table, error) {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		if t.ColumnIndex(name) < 0 {
			return nil, &MissingColumnError{Name: name}
		}
		drop[name] = true
	}
	kept := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !drop[c.Name] {
			kept = append(kept, c.Name)
		}
	}
	if len(kept) == 0 {
		return nil, ErrValidation("cannot drop every column")
	}
	return t.Select(kept)
}

// SortBy orders rows by the named column under the deterministic cell
// order. The sort is stable, so equal keys preserve input order.
func (t *Table) SortBy(name string, descending bool) (*Table, error) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil, &MissingColumnError{Name: name}
	}
	idx := make([]int, t.NumRows())
	for i := range idx {
		idx[i] = i
	}
	cells := t.Columns[j].Cells
	sort.SliceStable(idx, func(a, b int) bool {
		if descending {
			return CellLess(cells[idx[b]], cells[idx[a]])
		}
		return CellLess(cells[idx[a]], cells[idx[b]])
	})
	return t.selectRows(idx), nil
}

// Head keeps the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.NumRows() {
		n = t.NumRows()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.selectRows(idx)
}

// TrimWhitespace trims leading and trailing whitespace from every string
// cell.
func (t *Table) TrimWhitespace() *Table {
	out := t.Clone()
	for j := range out.Columns {
		for i, v := range out.Columns[j].Cells {
			if s, ok := v.(string); ok {
				out.Columns[j].Cells[i] = strings.TrimSpace(s)
			}
		}
	}
	return out
}

// Lowercase lowercases string cells in the named columns, or in every
// string-bearing column when none are named.
func (t *Table) Lowercase(columns ...string) (*Table, error) {
	return t.mapStrings(strings.ToLower, columns)
}

// Uppercase uppercases string cells in the named columns, or in every
// string-bearing column when none are named.
func (t *Table) Uppercase(columns ...string) (*Table, error) {
	return t.mapStrings(strings.ToUpper, columns)
}

// WithColumn replaces the named column's cells, or appends a new column.
// The cell count must match the table's row count.
func (t *Table) WithColumn(name string, cells []any) (*Table, error) {
	if name == "" {
		return nil, ErrValidation("column name must not be empty")
	}
	if len(cells) != t.NumRows() {
		return nil, ErrValidation("column %q has %d cells, want %d", name, len(cells), t.NumRows())
	}
	out := t.Clone()
	owned := make([]any, len(cells))
	copy(owned, cells)
	if j := out.ColumnIndex(name); j >= 0 {
		out.Columns[j].Cells = owned
		return out, nil
	}
	out.Columns = append(out.Columns, Column{Name: name, Cells: owned})
	return out, nil
}

// FilterRows keeps rows whose mask entry is true. The mask length must
// match the row count.
func (t *Table) FilterRows(keep []bool) (*Table, error) {
	if len(keep) != t.NumRows() {
		return nil, ErrValidation("filter mask has %d entries, want %d", len(keep), t.NumRows())
	}
	idx := make([]int, 0, t.NumRows())
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return t.selectRows(idx), nil
}

func (t *Table) mapStrings(fn func(string) string, columns []string) (*Table, error) {
	idx, err := t.columnIndexes(columns)
	if err != nil {
		return nil, err
	}
	apply := make(map[int]bool, len(idx))
	for _, j := range idx {
		apply[j] = true
	}
	out := t.Clone()
	for j := range out.Columns {
		if !apply[j] {
			continue
		}
		for i, v := range out.Columns[j].Cells {
			if s, ok := v.(string); ok {
				out.Columns[j].Cells[i] = fn(s)
			}
		}
	}
	return out, nil
}

// columnIndexes resolves the named columns, or every column when names is
// empty.
func (t *Table) columnIndexes(names []string) ([]int, error) {
	if len(names) == 0 {
		idx := make([]int, len(t.Columns))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	idx := make([]int, 0, len(names))
	for _, name := range names {
		j := t.ColumnIndex(name)
		if j < 0 {
			return nil, &MissingColumnError{Name: name}
		}
		idx = append(idx, j)
	}
	return idx, nil
}

func (t *Table) selectRows(idx []int) *Table {
	cols := make([]Column, len(t.Columns))
	for j, c := range t.Columns {
		cells := make([]any, len(idx))
		for i, r := range idx {
			cells[i] = c.Cells[r]
		}
		cols[j] = Column{Name: c.Name, Cells: cells}
	}
	return &Table{Columns: cols}
}
