package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/karthik2365/data-cleaning/internal/domain"
	"github.com/karthik2365/data-cleaning/internal/ingest"
	"github.com/karthik2365/data-cleaning/internal/sandbox"
	"github.com/karthik2365/data-cleaning/internal/service/transform"
)

// newCleanCmd runs the pipeline in-process: ingest a file, apply built-in
// transformations, write the result. No server needed.
func newCleanCmd() *cobra.Command {
	var (
		recipes []string
		format  string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "clean <file>",
		Short: "Clean a file locally with built-in transformations",
		Example: `  # Default standard clean (duplicates, null rows, whitespace)
  dataclean clean messy.csv --out clean.csv

  # Specific transformations, in order
  dataclean clean messy.csv --recipe drop_duplicates --recipe trim_whitespace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if format == "" {
				format = ingest.DetectFormat(args[0], raw)
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			table, _, _, err := ingest.New(0, logger).Ingest(cmd.Context(), raw, format)
			if err != nil {
				return err
			}

			registry, err := transform.LoadRecipes()
			if err != nil {
				return err
			}
			rt := sandbox.New(sandbox.Options{}, logger)

			if len(recipes) == 0 {
				recipes = []string{"standard_clean"}
			}
			for _, name := range recipes {
				recipe, ok := registry.Get(name)
				if !ok {
					return fmt.Errorf("unknown transformation %q: run 'dataclean transforms' for the list", name)
				}
				table, err = runRecipe(cmd.Context(), rt, recipe, table)
				if err != nil {
					return err
				}
			}

			w := io.Writer(os.Stdout)
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := writeCSV(w, table); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(os.Stderr, "wrote %s (%d rows)\n", out, table.NumRows())
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&recipes, "recipe", nil, "Transformation to apply, repeatable (default standard_clean)")
	cmd.Flags().StringVar(&format, "format", "", "Input format (csv, tsv, json, xlsx, txt); detected when omitted")
	cmd.Flags().StringVar(&out, "out", "", "Write to file instead of stdout")
	return cmd
}

func runRecipe(ctx context.Context, rt *sandbox.Runtime, recipe transform.Recipe, table *domain.Table) (*domain.Table, error) {
	res := rt.Execute(ctx, recipe.Code, table)
	if res.Failed() {
		detail := res.Failure.Kind
		if res.Failure.Detail != "" {
			detail += ": " + res.Failure.Detail
		}
		return nil, fmt.Errorf("transformation %s failed: %s", recipe.Name, detail)
	}
	if res.Table == nil {
		return nil, fmt.Errorf("transformation %s produced no table (summary: %v)", recipe.Name, res.Summary)
	}
	return res.Table, nil
}

func writeCSV(w io.Writer, table *domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.ColumnNames()); err != nil {
		return err
	}
	record := make([]string, table.NumColumns())
	for i := 0; i < table.NumRows(); i++ {
		for j, cell := range table.Row(i) {
			record[j] = domain.FormatCell(cell)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
