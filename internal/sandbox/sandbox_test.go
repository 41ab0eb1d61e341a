package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/karthik2365/data-cleaning/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTable has four rows: one duplicate pair, one null age, one null name.
func testTable(t *testing.T) *domain.Table {
	t.Helper()
	tab, err := domain.NewTable(
		domain.Column{Name: "name", Cells: []any{" Alice ", "Bob", " Alice ", nil}},
		domain.Column{Name: "age", Cells: []any{int64(30), nil, int64(30), int64(40)}},
		domain.Column{Name: "city", Cells: []any{"Austin", "Boston", "Austin", "Chicago"}},
	)
	require.NoError(t, err)
	return tab
}

func TestExecute_TableResult(t *testing.T) {
	rt := New(Options{}, nil)
	tab := testTable(t)

	res := rt.Execute(context.Background(), `table = table.drop_duplicates()`, tab)

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	require.NotNil(t, res.Table)
	assert.Nil(t, res.Summary)
	assert.Equal(t, 3, res.Table.NumRows())
	assert.Equal(t, 3, res.RowCount)
	assert.Equal(t, 3, res.ColumnCount)
	assert.Equal(t, 4, res.TotalRows)
	assert.Equal(t, 4, res.ProcessedRows)
}

func TestExecute_InputNeverMutated(t *testing.T) {
	rt := New(Options{}, nil)
	tab := testTable(t)

	res := rt.Execute(context.Background(), "table = table.trim_whitespace()\ntable = table.fillna(\"x\")", tab)

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Equal(t, " Alice ", tab.Columns[0].Cells[0])
	assert.Nil(t, tab.Columns[1].Cells[1])
	assert.Equal(t, "Alice", res.Table.Columns[0].Cells[0])
	assert.Equal(t, "x", res.Table.Columns[1].Cells[1])
}

func TestExecute_ResultGlobalWins(t *testing.T) {
	rt := New(Options{}, nil)

	res := rt.Execute(context.Background(), "result = {\"n\": len(table)}\ntable = table.head(1)", testTable(t))

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Nil(t, res.Table)
	assert.Equal(t, map[string]any{"n": int64(4)}, res.Summary)
}

func TestExecute_IdentityWithoutBinding(t *testing.T) {
	rt := New(Options{}, nil)
	tab := testTable(t)

	res := rt.Execute(context.Background(), `x = 1`, tab)

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	require.NotNil(t, res.Table)
	assert.True(t, res.Table.Equal(tab))
}

func TestExecute_ColumnAggregates(t *testing.T) {
	rt := New(Options{}, nil)
	source := `result = {
    "nulls": table["age"].null_count(),
    "total": table["age"].sum(),
    "min": table["age"].min(),
    "max": table["age"].max(),
}`

	res := rt.Execute(context.Background(), source, testTable(t))

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	want := map[string]any{
		"nulls": int64(1),
		"total": float64(100),
		"min":   int64(30),
		"max":   int64(40),
	}
	assert.Equal(t, want, res.Summary)
}

func TestExecute_ColumnUniqueAsResult(t *testing.T) {
	rt := New(Options{}, nil)

	res := rt.Execute(context.Background(), `result = table["city"].unique()`, testTable(t))

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Equal(t, []any{"Austin", "Boston", "Chicago"}, res.Summary)
}

func TestExecute_FilterAndMapColumn(t *testing.T) {
	rt := New(Options{}, nil)
	source := `
def keep(row):
    return row["age"] != None

def shout(v):
    return v.upper()

table = table.filter(keep)
table = table.map_column("city", shout)
`

	res := rt.Execute(context.Background(), source, testTable(t))

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	require.Equal(t, 3, res.Table.NumRows())
	city, ok := res.Table.ColumnByName("city")
	require.True(t, ok)
	assert.Equal(t, []any{"AUSTIN", "AUSTIN", "CHICAGO"}, city.Cells)
}

func TestExecute_WithColumn(t *testing.T) {
	rt := New(Options{}, nil)
	source := `
def label(row):
    return str(row["age"]) + "y"

table = table.with_column("age_label", label)
`

	res := rt.Execute(context.Background(), source, testTable(t))

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	require.Equal(t, 4, res.Table.NumColumns())
	col, ok := res.Table.ColumnByName("age_label")
	require.True(t, ok)
	assert.Equal(t, "30y", col.Cells[0])
}

func TestExecute_MissingColumn(t *testing.T) {
	rt := New(Options{}, nil)
	tests := []struct {
		name   string
		source string
	}{
		{"sort by unknown", `table = table.sort_by("salary")`},
		{"index unknown", `result = table["salary"].mean()`},
		{"map unknown", "def id(v):\n    return v\ntable = table.map_column(\"salary\", id)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rt.Execute(context.Background(), tt.source, testTable(t))
			assert.Equal(t, domain.OutcomeRuntimeError, res.Outcome)
			require.NotNil(t, res.Failure)
			assert.Equal(t, "missing-column:salary", res.Failure.Kind)
		})
	}
}

func TestExecute_RuntimeErrorKinds(t *testing.T) {
	rt := New(Options{}, nil)
	tests := []struct {
		name     string
		source   string
		wantKind string
	}{
		{"binary op mismatch", `result = "a" + 1`, domain.FailTypeError},
		{"division by zero", `result = 1 // 0`, domain.FailValueError},
		{"explicit fail", `fail("bad input")`, domain.FailEvaluation},
		{"function result", "def f():\n    return 1\nresult = f", domain.FailInvalidResultShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rt.Execute(context.Background(), tt.source, testTable(t))
			assert.Equal(t, domain.OutcomeRuntimeError, res.Outcome)
			require.NotNil(t, res.Failure)
			assert.Equal(t, tt.wantKind, res.Failure.Kind)
		})
	}
}

func TestExecute_RowCeiling(t *testing.T) {
	rt := New(Options{MaxRows: 2}, nil)

	res := rt.Execute(context.Background(), `table = table.drop_duplicates()`, testTable(t))

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 4, res.TotalRows)
	assert.Equal(t, 2, res.ProcessedRows)
	assert.LessOrEqual(t, res.Table.NumRows(), 2)
}

func TestExecute_StepBudgetExhausted(t *testing.T) {
	rt := New(Options{MaxSteps: 100}, nil)
	source := "total = 0\nfor i in range(100000):\n    total = total + i\nresult = total"

	res := rt.Execute(context.Background(), source, testTable(t))

	assert.Equal(t, domain.OutcomeResourceExceeded, res.Outcome)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.FailStepBudget, res.Failure.Kind)
}

func TestExecute_Timeout(t *testing.T) {
	rt := New(Options{MaxSteps: 1 << 62, Timeout: 20 * time.Millisecond}, nil)
	source := "x = 0\nfor i in range(1000000):\n    for j in range(1000000):\n        x = x + 1"

	res := rt.Execute(context.Background(), source, testTable(t))

	assert.Equal(t, domain.OutcomeResourceExceeded, res.Outcome)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.FailTimeout, res.Failure.Kind)
}

func TestExecute_ContextCancelled(t *testing.T) {
	rt := New(Options{MaxSteps: 1 << 62}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source := "x = 0\nfor i in range(1000000):\n    for j in range(1000000):\n        x = x + 1"

	res := rt.Execute(ctx, source, testTable(t))

	assert.Equal(t, domain.OutcomeResourceExceeded, res.Outcome)
	require.NotNil(t, res.Failure)
	assert.Equal(t, domain.FailTimeout, res.Failure.Kind)
}

func TestExecute_CleanMethod(t *testing.T) {
	rt := New(Options{}, nil)
	tab, err := domain.NewTable(
		domain.Column{Name: "email", Cells: []any{"  John@Example.COM "}},
		domain.Column{Name: "name", Cells: []any{"john  smith"}},
	)
	require.NoError(t, err)

	res := rt.Execute(context.Background(), `table = table.clean()`, tab)

	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "john@example.com", res.Table.Columns[0].Cells[0])
	assert.Equal(t, "John Smith", res.Table.Columns[1].Cells[0])
}

func TestExecute_Deterministic(t *testing.T) {
	rt := New(Options{}, nil)
	source := "table = table.clean()\ntable = table.sort_by(\"age\")"

	first := rt.Execute(context.Background(), source, testTable(t))
	second := rt.Execute(context.Background(), source, testTable(t))

	require.Equal(t, domain.OutcomeSuccess, first.Outcome)
	require.Equal(t, domain.OutcomeSuccess, second.Outcome)
	assert.True(t, first.Table.Equal(second.Table))
}

func TestExecute_UnresolvedNameFailsClosed(t *testing.T) {
	// Execution is normally gated by Validate, but the interpreter's own
	// resolution must still fail rather than reach ambient state.
	rt := New(Options{}, nil)

	res := rt.Execute(context.Background(), `result = undefined_name`, testTable(t))

	assert.Equal(t, domain.OutcomeRuntimeError, res.Outcome)
	require.NotNil(t, res.Failure)
}

func TestValidateThenExecute(t *testing.T) {
	rt := New(Options{}, nil)
	sources := []string{
		`table = table.drop_duplicates().dropna()`,
		"result = {\"rows\": len(table), \"mean\": table[\"age\"].mean()}",
		"def keep(row):\n    return row[\"city\"] != \"Boston\"\ntable = table.filter(keep)",
		"table = table.rename({\"name\": \"full_name\"})\ntable = table.select([\"full_name\", \"age\"])",
	}
	for _, source := range sources {
		require.NoError(t, rt.Validate(source))
		res := rt.Execute(context.Background(), source, testTable(t))
		assert.Equal(t, domain.OutcomeSuccess, res.Outcome, "source: %s", source)
	}
}
