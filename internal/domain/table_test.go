package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, cols ...Column) *Table {
	t.Helper()
	tab, err := NewTable(cols...)
	require.NoError(t, err)
	return tab
}

// scenarioTable is the 3-row, 2-column table with one duplicate row and one
// null cell used across statistics and execution tests.
func scenarioTable(t *testing.T) *Table {
	t.Helper()
	return mustTable(t,
		Column{Name: "name", Cells: []any{"Alice", "Bob", "Alice"}},
		Column{Name: "age", Cells: []any{int64(30), nil, int64(30)}},
	)
}

func TestNewTable_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		cols    []Column
		wantErr string
	}{
		{
			name: "valid",
			cols: []Column{
				{Name: "a", Cells: []any{int64(1), int64(2)}},
				{Name: "b", Cells: []any{"x", "y"}},
			},
		},
		{
			name:    "no columns",
			cols:    nil,
			wantErr: "at least one column",
		},
		{
			name: "duplicate name",
			cols: []Column{
				{Name: "a", Cells: []any{int64(1)}},
				{Name: "a", Cells: []any{int64(2)}},
			},
			wantErr: `duplicate column name "a"`,
		},
		{
			name: "ragged columns",
			cols: []Column{
				{Name: "a", Cells: []any{int64(1), int64(2)}},
				{Name: "b", Cells: []any{"x"}},
			},
			wantErr: `column "b" has 1 cells, want 2`,
		},
		{
			name:    "empty name",
			cols:    []Column{{Name: "", Cells: []any{int64(1)}}},
			wantErr: "column name must not be empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab, err := NewTable(tt.cols...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, tab.NumRows())
			assert.Equal(t, 2, tab.NumColumns())
		})
	}
}

func TestTable_CloneIsDeep(t *testing.T) {
	orig := scenarioTable(t)
	clone := orig.Clone()
	require.True(t, orig.Equal(clone))

	clone.Columns[0].Cells[0] = "Mallory"
	clone.Columns[1].Name = "years"

	assert.Equal(t, "Alice", orig.Columns[0].Cells[0])
	assert.Equal(t, "age", orig.Columns[1].Name)
	assert.False(t, orig.Equal(clone))
}

func TestTable_SampleRowsNeverAliases(t *testing.T) {
	tab := scenarioTable(t)
	rows := tab.SampleRows(10)
	require.Len(t, rows, 3)

	rows[0][0] = "Mallory"
	assert.Equal(t, "Alice", tab.Columns[0].Cells[0])

	assert.Empty(t, tab.SampleRows(0))
	assert.Len(t, tab.SampleRows(2), 2)
}

func TestTable_Equal(t *testing.T) {
	a := scenarioTable(t)
	b := scenarioTable(t)
	assert.True(t, a.Equal(b))

	// Numeric equality crosses int/float kinds.
	c := mustTable(t, Column{Name: "n", Cells: []any{int64(1)}})
	d := mustTable(t, Column{Name: "n", Cells: []any{float64(1)}})
	assert.True(t, c.Equal(d))

	// Column order is part of identity.
	e := mustTable(t,
		Column{Name: "age", Cells: []any{int64(30), nil, int64(30)}},
		Column{Name: "name", Cells: []any{"Alice", "Bob", "Alice"}},
	)
	assert.False(t, a.Equal(e))
	assert.False(t, a.Equal(nil))
}

func TestTable_RowKeyDistinguishesKinds(t *testing.T) {
	tab := mustTable(t,
		Column{Name: "a", Cells: []any{int64(1), "1", nil, int64(1)}},
	)
	assert.NotEqual(t, tab.RowKey(0), tab.RowKey(1), "1 and \"1\" must differ")
	assert.NotEqual(t, tab.RowKey(1), tab.RowKey(2))
	assert.Equal(t, tab.RowKey(0), tab.RowKey(3))

	// Separator characters inside strings cannot fake a boundary.
	tricky := mustTable(t,
		Column{Name: "a", Cells: []any{"x|s:y", "x"}},
		Column{Name: "b", Cells: []any{"z", "y|s:z"}},
	)
	assert.NotEqual(t, tricky.RowKey(0), tricky.RowKey(1))
}

func TestTable_RowKeyLargeIntegers(t *testing.T) {
	const big = int64(1) << 53
	tab := mustTable(t,
		Column{Name: "a", Cells: []any{big, big + 1, float64(big), int64(1), float64(1)}},
	)

	// Past 2^53 a float64 cannot tell adjacent integers apart; the key must.
	assert.NotEqual(t, tab.RowKey(0), tab.RowKey(1))
	// Exactly representable integers still match their float twins.
	assert.Equal(t, tab.RowKey(0), tab.RowKey(2))
	assert.Equal(t, tab.RowKey(3), tab.RowKey(4))
}

func TestColumn_Aggregates(t *testing.T) {
	c := Column{Name: "v", Cells: []any{int64(2), nil, float64(4), "skip", int64(6)}}

	assert.Equal(t, 1, c.NullCount())

	mean, ok := c.Mean()
	require.True(t, ok)
	assert.InDelta(t, 4.0, mean, 1e-9)

	sum, ok := c.Sum()
	require.True(t, ok)
	assert.InDelta(t, 12.0, sum, 1e-9)

	min, ok := c.Min()
	require.True(t, ok)
	assert.Equal(t, int64(2), min)

	max, ok := c.Max()
	require.True(t, ok)
	// "skip" ranks above every number in the cross-kind order.
	assert.Equal(t, "skip", max)

	empty := Column{Name: "e", Cells: []any{nil, nil}}
	_, ok = empty.Mean()
	assert.False(t, ok)
	_, ok = empty.Min()
	assert.False(t, ok)
}

func TestColumn_Unique(t *testing.T) {
	c := Column{Name: "v", Cells: []any{"b", "a", nil, "b", int64(1), float64(1)}}
	got := c.Unique()
	// First-seen order; nil skipped; 1 and 1.0 collapse numerically.
	assert.Equal(t, []any{"b", "a", int64(1)}, got)
}

func TestFormatCell(t *testing.T) {
	noon := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	midnight := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{int64(42), "42"},
		{float64(3.5), "3.5"},
		{true, "true"},
		{"x", "x"},
		{midnight, "2024-03-01"},
		{noon, "2024-03-01T12:30:00Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCell(tt.in))
	}
}
