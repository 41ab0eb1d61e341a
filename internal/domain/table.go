package domain

import "strings"

// Column is a named sequence of scalar cells. Rows align by index across the
// columns of a table.
type Column struct {
	Name  string
	Cells []any
}

// Table is the column-oriented in-memory representation of a dataset.
// Column order is significant and every column has the same length.
type Table struct {
	Columns []Column
}

// NewTable builds a table after checking the structural invariants: at least
// one column, unique column names, equal cell counts.
func NewTable(columns ...Column) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrValidation("table requires at least one column")
	}
	seen := make(map[string]struct{}, len(columns))
	rows := len(columns[0].Cells)
	for _, c := range columns {
		if c.Name == "" {
			return nil, ErrValidation("column name must not be empty")
		}
		if _, dup := seen[c.Name]; dup {
			return nil, ErrValidation("duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if len(c.Cells) != rows {
			return nil, ErrValidation("column %q has %d cells, want %d", c.Name, len(c.Cells), rows)
		}
	}
	return &Table{Columns: columns}, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.Columns) }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnByName returns the named column.
func (t *Table) ColumnByName(name string) (*Column, bool) {
	if i := t.ColumnIndex(name); i >= 0 {
		return &t.Columns[i], true
	}
	return nil, false
}

// Row returns a fresh slice holding row i's cells in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Cells[i]
	}
	return row
}

// SampleRows returns copies of the first n rows. Sampling never mutates or
// aliases stored cells.
func (t *Table) SampleRows(n int) [][]any {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	if n < 0 {
		n = 0
	}
	rows := make([][]any, n)
	for i := 0; i < n; i++ {
		rows[i] = t.Row(i)
	}
	return rows
}

// Clone deep-copies the table. Cell values are scalars, so copying the cell
// slices is a full copy.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		cells := make([]any, len(c.Cells))
		copy(cells, c.Cells)
		cols[i] = Column{Name: c.Name, Cells: cells}
	}
	return &Table{Columns: cols}
}

// Equal reports cell-wise equality: same column names in the same order,
// same rows in the same order.
func (t *Table) Equal(other *Table) bool {
	if other == nil || len(t.Columns) != len(other.Columns) {
		return false
	}
	for i := range t.Columns {
		a, b := &t.Columns[i], &other.Columns[i]
		if a.Name != b.Name || len(a.Cells) != len(b.Cells) {
			return false
		}
		for j := range a.Cells {
			if !CellEqual(a.Cells[j], b.Cells[j]) {
				return false
			}
		}
	}
	return true
}

// RowKey returns a canonical encoding of row i used for duplicate
// detection. Column order is part of the identity; row order is not.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j := range t.Columns {
		if j > 0 {
			b.WriteByte('|')
		}
		cellKey(&b, t.Columns[j].Cells[i])
	}
	return b.String()
}

// NullCount returns the number of nil cells in the column.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Cells {
		if v == nil {
			n++
		}
	}
	return n
}

// Unique returns the column's distinct values in first-seen order. Nil cells
// are skipped.
func (c *Column) Unique() []any {
	var b strings.Builder
	seen := make(map[string]struct{}, len(c.Cells))
	out := make([]any, 0, len(c.Cells))
	for _, v := range c.Cells {
		if v == nil {
			continue
		}
		b.Reset()
		cellKey(&b, v)
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Mean averages the numeric cells. ok is false when the column has none.
func (c *Column) Mean() (float64, bool) {
	sum, n := 0.0, 0
	for _, v := range c.Cells {
		if f, isNum := numericCell(v); isNum {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Sum totals the numeric cells. ok is false when the column has none.
func (c *Column) Sum() (float64, bool) {
	sum, n := 0.0, 0
	for _, v := range c.Cells {
		if f, isNum := numericCell(v); isNum {
			sum += f
			n++
		}
	}
	return sum, n > 0
}

// Min returns the smallest non-nil cell under the deterministic cell order.
func (c *Column) Min() (any, bool) {
	var best any
	found := false
	for _, v := range c.Cells {
		if v == nil {
			continue
		}
		if !found || CellLess(v, best) {
			best, found = v, true
		}
	}
	return best, found
}

// Max returns the largest non-nil cell under the deterministic cell order.
func (c *Column) Max() (any, bool) {
	var best any
	found := false
	for _, v := range c.Cells {
		if v == nil {
			continue
		}
		if !found || CellLess(best, v) {
			best, found = v, true
		}
	}
	return best, found
}
