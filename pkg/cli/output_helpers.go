package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// Response shapes mirrored from the server API.

type previewResponse struct {
	SessionID  string        `json:"session_id"`
	State      string        `json:"state"`
	Schema     []fieldInfo   `json:"schema"`
	Statistics statsInfo     `json:"statistics"`
	SampleRows [][]any       `json:"sample_rows"`
	History    []historyInfo `json:"history"`
}

type fieldInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type statsInfo struct {
	TotalRows     int            `json:"total_rows"`
	TotalColumns  int            `json:"total_columns"`
	NullCounts    map[string]int `json:"null_counts"`
	DuplicateRows int            `json:"duplicate_rows"`
}

type historyInfo struct {
	Code       string    `json:"code"`
	Provenance string    `json:"provenance"`
	AppliedAt  time.Time `json:"applied_at"`
	ElapsedMs  int64     `json:"elapsed_ms"`
}

type executionResponse struct {
	Outcome       string   `json:"outcome"`
	Columns       []string `json:"columns"`
	Rows          [][]any  `json:"rows"`
	Summary       any      `json:"summary"`
	RowCount      int      `json:"row_count"`
	ColumnCount   int      `json:"column_count"`
	TotalRows     int      `json:"total_rows"`
	ProcessedRows int      `json:"processed_rows"`
	ElapsedMs     int64    `json:"elapsed_ms"`
	Failure       *struct {
		Kind   string `json:"kind"`
		Detail string `json:"detail"`
	} `json:"failure"`
}

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printPreview(w io.Writer, p previewResponse) {
	fmt.Fprintf(w, "Session: %s  State: %s\n", p.SessionID, p.State)
	fmt.Fprintf(w, "Rows: %d  Columns: %d  Duplicates: %d\n",
		p.Statistics.TotalRows, p.Statistics.TotalColumns, p.Statistics.DuplicateRows)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNULLS")
	for _, f := range p.Schema {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", f.Name, f.Type, p.Statistics.NullCounts[f.Name])
	}
	tw.Flush()

	if len(p.SampleRows) > 0 {
		fmt.Fprintln(w, "\nSample:")
		printGrid(w, columnNames(p.Schema), p.SampleRows)
	}
	if len(p.History) > 0 {
		fmt.Fprintf(w, "\nApplied transformations: %d\n", len(p.History))
	}
}

func printExecution(w io.Writer, res executionResponse) {
	fmt.Fprintf(w, "Outcome: %s  (%d ms)\n", res.Outcome, res.ElapsedMs)
	if res.Failure != nil {
		fmt.Fprintf(w, "Failure: %s", res.Failure.Kind)
		if res.Failure.Detail != "" {
			fmt.Fprintf(w, " — %s", res.Failure.Detail)
		}
		fmt.Fprintln(w)
		return
	}
	if res.Summary != nil {
		fmt.Fprintf(w, "Result: %v\n", res.Summary)
		return
	}
	fmt.Fprintf(w, "Rows: %d  Columns: %d", res.RowCount, res.ColumnCount)
	if res.ProcessedRows < res.TotalRows {
		fmt.Fprintf(w, "  (processed %d of %d rows)", res.ProcessedRows, res.TotalRows)
	}
	fmt.Fprintln(w)
	if len(res.Rows) > 0 {
		printGrid(w, res.Columns, res.Rows)
	}
}

func printGrid(w io.Writer, columns []string, rows [][]any) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			if cell == nil {
				fmt.Fprint(tw, "<null>")
			} else {
				fmt.Fprintf(tw, "%v", cell)
			}
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func columnNames(schema []fieldInfo) []string {
	names := make([]string, len(schema))
	for i, f := range schema {
		names[i] = f.Name
	}
	return names
}
