package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_DropDuplicates(t *testing.T) {
	tab := scenarioTable(t)
	out := tab.DropDuplicates()

	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, []any{"Alice", "Bob"}, out.Columns[0].Cells)
	// Original untouched.
	assert.Equal(t, 3, tab.NumRows())
}

func TestTable_DropDuplicates_LargeIntegers(t *testing.T) {
	const big = int64(1) << 53
	tab := mustTable(t,
		Column{Name: "id", Cells: []any{big, big + 1, big}},
	)

	out := tab.DropDuplicates()
	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, []any{big, big + 1}, out.Columns[0].Cells)
}

func TestTable_DropNulls(t *testing.T) {
	tab := mustTable(t,
		Column{Name: "a", Cells: []any{int64(1), nil, int64(3)}},
		Column{Name: "b", Cells: []any{"x", "y", nil}},
	)

	all, err := tab.DropNulls()
	require.NoError(t, err)
	assert.Equal(t, 1, all.NumRows())
	assert.Equal(t, []any{int64(1)}, all.Columns[0].Cells)

	onlyA, err := tab.DropNulls("a")
	require.NoError(t, err)
	assert.Equal(t, 2, onlyA.NumRows())

	_, err = tab.DropNulls("missing")
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "missing", mce.Name)
}

func TestTable_FillNulls(t *testing.T) {
	tab := mustTable(t,
		Column{Name: "a", Cells: []any{nil, int64(2)}},
		Column{Name: "b", Cells: []any{nil, "y"}},
	)

	out, err := tab.FillNulls("n/a", "b")
	require.NoError(t, err)
	assert.Nil(t, out.Columns[0].Cells[0])
	assert.Equal(t, "n/a", out.Columns[1].Cells[0])

	everywhere, err := tab.FillNulls(int64(0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), everywhere.Columns[0].Cells[0])
	assert.Equal(t, int64(0), everywhere.Columns[1].Cells[0])
}

func TestTable_Rename(t *testing.T) {
	tab := scenarioTable(t)

	out, err := tab.Rename(map[string]string{"age": "years"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "years"}, out.ColumnNames())
	assert.Equal(t, []string{"name", "age"}, tab.ColumnNames())

	_, err = tab.Rename(map[string]string{"ghost": "x"})
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)

	_, err = tab.Rename(map[string]string{"age": "name"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestTable_SelectAndDrop(t *testing.T) {
	tab := mustTable(t,
		Column{Name: "a", Cells: []any{int64(1)}},
		Column{Name: "b", Cells: []any{int64(2)}},
		Column{Name: "c", Cells: []any{int64(3)}},
	)

	sel, err := tab.Select([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sel.ColumnNames())

	_, err = tab.Select([]string{"nope"})
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)

	_, err = tab.Select(nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	dropped, err := tab.DropColumns([]string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, dropped.ColumnNames())

	_, err = tab.DropColumns([]string{"a", "b", "c"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "cannot drop every column")
}

func TestTable_SortBy(t *testing.T) {
	tab := mustTable(t,
		Column{Name: "n", Cells: []any{int64(3), nil, int64(1), int64(3)}},
		Column{Name: "tag", Cells: []any{"first", "null", "low", "second"}},
	)

	asc, err := tab.SortBy("n", false)
	require.NoError(t, err)
	// nil sorts first; stable order preserves "first" before "second".
	assert.Equal(t, []any{"null", "low", "first", "second"}, asc.Columns[1].Cells)

	desc, err := tab.SortBy("n", true)
	require.NoError(t, err)
	assert.Equal(t, []any{"first", "second", "low", "null"}, desc.Columns[1].Cells)

	_, err = tab.SortBy("ghost", false)
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
}

func TestTable_Head(t *testing.T) {
	tab := scenarioTable(t)
	assert.Equal(t, 2, tab.Head(2).NumRows())
	assert.Equal(t, 3, tab.Head(99).NumRows())
	assert.Equal(t, 0, tab.Head(-1).NumRows())
}

func TestTable_StringTransforms(t *testing.T) {
	tab := mustTable(t,
		Column{Name: "s", Cells: []any{"  Mixed Case  ", int64(7), nil}},
		Column{Name: "u", Cells: []any{"keep", "ME", "x"}},
	)

	trimmed := tab.TrimWhitespace()
	assert.Equal(t, "Mixed Case", trimmed.Columns[0].Cells[0])
	assert.Equal(t, int64(7), trimmed.Columns[0].Cells[1])

	lower, err := tab.Lowercase("s")
	require.NoError(t, err)
	assert.Equal(t, "  mixed case  ", lower.Columns[0].Cells[0])
	assert.Equal(t, "ME", lower.Columns[1].Cells[1])

	upper, err := tab.Uppercase()
	require.NoError(t, err)
	assert.Equal(t, "KEEP", upper.Columns[1].Cells[0])
}

func TestTable_WithColumn(t *testing.T) {
	tab := scenarioTable(t)

	replaced, err := tab.WithColumn("age", []any{int64(1), int64(2), int64(3)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, replaced.Columns[1].Cells)

	appended, err := tab.WithColumn("flag", []any{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "flag"}, appended.ColumnNames())

	_, err = tab.WithColumn("short", []any{true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestTable_FilterRows(t *testing.T) {
	tab := scenarioTable(t)

	out, err := tab.FilterRows([]bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, []any{"Alice", "Alice"}, out.Columns[0].Cells)

	_, err = tab.FilterRows([]bool{true})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
