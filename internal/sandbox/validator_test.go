package sandbox

import (
	"testing"

	"github.com/karthik2365/data-cleaning/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccepts(t *testing.T) {
	rt := New(Options{}, nil)
	tests := []struct {
		name   string
		source string
	}{
		{"method chain", `table = table.drop_duplicates().dropna()`},
		{"rebinding steps", "table = table.trim_whitespace()\ntable = table.fillna(0)"},
		{"expression statement", `table.head(3)`},
		{"result assignment", `result = {"rows": len(table)}`},
		{"helper function", "def double(x):\n    return x * 2\nresult = double(21)"},
		{"top level loop", "total = 0\nfor row in table:\n    total = total + 1\nresult = total"},
		{"comprehension", `result = [c for c in table.columns]`},
		{"math module", `result = math.sqrt(16.0)`},
		{"numeric builtins", `result = round(sum([1.5, 2.5]), 1)`},
		{"column access", `result = table["age"].mean()`},
		{"filter with local def", "def keep(row):\n    return row[\"age\"] != None\ntable = table.filter(keep)"},
		// Column existence is a runtime concern, not a validation one.
		{"unknown column", `table = table.sort_by("no_such_column")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, rt.Validate(tt.source))
		})
	}
}

func TestValidateRejects(t *testing.T) {
	rt := New(Options{}, nil)
	tests := []struct {
		name       string
		source     string
		wantReason string
	}{
		{"syntax error", `table = = 1`, "syntax-error"},
		{"while loop", "while True:\n    pass", "syntax-error"},
		{"load statement", `load("module.star", "helper")`, "import-statement"},
		{"open call", `data = open("/etc/passwd")`, "forbidden-identifier:open"},
		{"eval call", `eval("1+1")`, "forbidden-identifier:eval"},
		{"exec call", `exec("pass")`, "forbidden-identifier:exec"},
		{"type call", `result = type(table)`, "forbidden-identifier:type"},
		{"getattr probe", `getattr(table, "head")`, "forbidden-identifier:getattr"},
		{"dunder import", `__import__("os")`, "forbidden-identifier:__import__"},
		{"denied attribute", `table.to_csv("out.csv")`, "forbidden-attribute:to_csv"},
		// The walk is preorder, so the attribute is tagged before the
		// identifier under it.
		{"denied module attribute", `os.environ`, "forbidden-attribute:environ"},
		{"unknown module", `result = pandas.read()`, "unknown-identifier:pandas"},
		{"print", `print("hello")`, "unknown-identifier:print"},
		{"internal global", `result = __table__`, "unknown-identifier:__table__"},
		{"unbound variable", `result = q`, "unknown-identifier:q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rt.Validate(tt.source)
			require.Error(t, err)
			var forbidden *domain.ForbiddenConstructError
			require.ErrorAs(t, err, &forbidden)
			assert.Equal(t, tt.wantReason, forbidden.Reason)
		})
	}
}

func TestValidateRejectionNeverEchoesSource(t *testing.T) {
	rt := New(Options{}, nil)
	err := rt.Validate(`secret_marker = open("credentials.txt")`)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret_marker")
	assert.NotContains(t, err.Error(), "credentials")
}
