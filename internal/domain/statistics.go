package domain

// Statistics summarizes a table at ingest time and after every replace.
type Statistics struct {
	TotalRows     int
	TotalColumns  int
	NullCounts    map[string]int
	DuplicateRows int
}

// ComputeStatistics derives row/column totals, per-column null counts, and
// the duplicate-row count. A row is a duplicate when a cell-wise identical
// row appeared earlier; n identical rows count as n-1 duplicates. Column
// order is part of row identity, row order is not.
func ComputeStatistics(t *Table) Statistics {
	stats := Statistics{
		TotalRows:    t.NumRows(),
		TotalColumns: t.NumColumns(),
		NullCounts:   make(map[string]int, t.NumColumns()),
	}
	for _, c := range t.Columns {
		stats.NullCounts[c.Name] = c.NullCount()
	}
	seen := make(map[string]struct{}, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := t.RowKey(i)
		if _, dup := seen[key]; dup {
			stats.DuplicateRows++
			continue
		}
		seen[key] = struct{}{}
	}
	return stats
}
