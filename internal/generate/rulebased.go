package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// RuleBased is the deterministic keyword-matched generator. It serves as
// the default collaborator when no model endpoint is configured, so the
// pipeline stays usable offline. Like every collaborator its output still
// passes the validator before execution.
type RuleBased struct{}

// NewRuleBased creates the fallback generator.
func NewRuleBased() *RuleBased { return &RuleBased{} }

// Generate matches keywords in the instruction against a fixed set of
// transformations. Unrecognized instructions fall back to the standard
// cleaning pass rather than failing, mirroring a conservative default.
func (g *RuleBased) Generate(_ context.Context, instruction string, schema domain.Schema) (string, error) {
	req := strings.ToLower(instruction)
	var lines []string

	switch {
	case containsAny(req, "keep only", "select only", "only keep", "only columns"):
		if cols := mentionedColumns(req, schema); len(cols) > 0 {
			lines = append(lines, fmt.Sprintf("table = table.select(%s)", columnList(cols)))
		}
	case containsAny(req, "drop column", "remove column", "delete column"):
		if cols := mentionedColumns(req, schema); len(cols) > 0 {
			lines = append(lines, fmt.Sprintf("table = table.drop(%s)", columnList(cols)))
		}
	case containsAny(req, "duplicate"):
		lines = append(lines, "table = table.drop_duplicates()")
	case containsAny(req, "fill") && containsAny(req, "null", "na", "missing", "empty"):
		value := `""`
		if containsAny(req, "zero", " 0") {
			value = "0"
		}
		if cols := mentionedColumns(req, schema); len(cols) > 0 {
			lines = append(lines, fmt.Sprintf("table = table.fillna(%s, columns=%s)", value, columnList(cols)))
		} else {
			lines = append(lines, fmt.Sprintf("table = table.fillna(%s)", value))
		}
	case containsAny(req, "null", "missing", "na "):
		if cols := mentionedColumns(req, schema); len(cols) > 0 {
			lines = append(lines, fmt.Sprintf("table = table.dropna(columns=%s)", columnList(cols)))
		} else {
			lines = append(lines, "table = table.dropna()")
		}
	case containsAny(req, "trim", "whitespace", "strip"):
		lines = append(lines, "table = table.trim_whitespace()")
	case containsAny(req, "uppercase", "upper case"):
		lines = append(lines, "table = table.uppercase()")
	case containsAny(req, "lowercase", "lower case"):
		lines = append(lines, "table = table.lowercase()")
	case containsAny(req, "sort", "order by"):
		if cols := mentionedColumns(req, schema); len(cols) > 0 {
			reverse := ""
			if containsAny(req, "desc", "reverse", "largest", "highest") {
				reverse = ", reverse=True"
			}
			lines = append(lines, fmt.Sprintf("table = table.sort_by(%q%s)", cols[0], reverse))
		}
	case containsAny(req, "summary", "summarize", "statistics", "describe"):
		lines = append(lines, summarySnippet(schema))
	}

	if len(lines) == 0 {
		// Standard cleaning: the original fallback's default pass.
		lines = append(lines,
			"table = table.drop_duplicates()",
			"table = table.trim_whitespace()",
			"table = table.clean()",
		)
	}
	return strings.Join(lines, "\n"), nil
}

// summarySnippet builds an analysis result over every column: null counts
// plus means for numeric columns.
func summarySnippet(schema domain.Schema) string {
	var b strings.Builder
	b.WriteString("result = {\n")
	fmt.Fprintf(&b, "    %q: len(table),\n", "rows")
	for _, f := range schema {
		fmt.Fprintf(&b, "    %q: table[%q].null_count(),\n", f.Name+"_nulls", f.Name)
		if f.Type == domain.TypeInteger || f.Type == domain.TypeFloat {
			fmt.Fprintf(&b, "    %q: table[%q].mean(),\n", f.Name+"_mean", f.Name)
		}
	}
	b.WriteString("}")
	return b.String()
}

// mentionedColumns returns schema columns whose lowercased name appears in
// the instruction, in schema order.
func mentionedColumns(req string, schema domain.Schema) []string {
	var cols []string
	for _, f := range schema {
		if strings.Contains(req, strings.ToLower(f.Name)) {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var _ domain.Generator = (*RuleBased)(nil)
