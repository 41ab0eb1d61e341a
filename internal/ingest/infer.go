package ingest

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// buildTable assembles header + string records into a typed table. Every
// column is inferred independently: integer, then float, then boolean,
// then datetime against the fixed pattern set, defaulting to string.
// Null tokens become nil regardless of the winning type.
func buildTable(ctx context.Context, header []string, records [][]string) (*domain.Table, error) {
	if len(header) == 0 {
		return nil, domain.ErrParse("empty-file", "no header row")
	}
	if len(records) == 0 {
		return nil, domain.ErrParse("no-rows", "file holds a header but no data rows")
	}

	names := normalizeHeader(header)
	rawCols := make([][]string, len(names))
	for j := range rawCols {
		col := make([]string, len(records))
		for i, rec := range records {
			col[i] = rec[j]
		}
		rawCols[j] = col
	}

	typed := make([][]any, len(names))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8) // bounded parallelism
	for j := range rawCols {
		g.Go(func() error {
			typed[j] = inferColumn(rawCols[j])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	columns := make([]domain.Column, len(names))
	for j, name := range names {
		columns[j] = domain.Column{Name: name, Cells: typed[j]}
	}
	return domain.NewTable(columns...)
}

// normalizeHeader trims names, fills blanks with column_N, and suffixes
// duplicates so the table invariant of unique names holds.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]struct{}, len(header))
	for i, h := range header {
		base := strings.TrimSpace(h)
		if base == "" {
			base = fmt.Sprintf("column_%d", i+1)
		}
		name := base
		for k := 2; ; k++ {
			if _, taken := used[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s_%d", base, k)
		}
		used[name] = struct{}{}
		names[i] = name
	}
	return names
}

// inferColumn picks the narrowest type that fits every non-null cell.
// String columns keep their original cell text; typed columns hold parsed
// values.
func inferColumn(cells []string) []any {
	canInt, canFloat, canBool, canDate := true, true, true, true
	sawValue := false
	for _, raw := range cells {
		if domain.IsNullToken(raw) {
			continue
		}
		sawValue = true
		t := strings.TrimSpace(raw)
		if canInt {
			_, err := strconv.ParseInt(t, 10, 64)
			canInt = err == nil
		}
		if canFloat {
			f, err := strconv.ParseFloat(t, 64)
			canFloat = err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
		}
		if canBool {
			l := strings.ToLower(t)
			canBool = l == "true" || l == "false"
		}
		if canDate {
			_, canDate = domain.ParseDate(t)
		}
		if !canInt && !canFloat && !canBool && !canDate {
			break
		}
	}

	out := make([]any, len(cells))
	if !sawValue {
		return out // null-only column
	}
	for i, raw := range cells {
		if domain.IsNullToken(raw) {
			continue
		}
		t := strings.TrimSpace(raw)
		switch {
		case canInt:
			v, _ := strconv.ParseInt(t, 10, 64)
			out[i] = v
		case canFloat:
			v, _ := strconv.ParseFloat(t, 64)
			out[i] = v
		case canBool:
			out[i] = strings.EqualFold(t, "true")
		case canDate:
			v, _ := domain.ParseDate(t)
			out[i] = v
		default:
			out[i] = raw
		}
	}
	return out
}
