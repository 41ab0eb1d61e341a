// Package ingest parses uploaded files into typed in-memory tables with
// derived schemas and statistics.
package ingest

import (
	"context"
	"log/slog"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// DefaultMaxUploadBytes caps uploads at 50 MiB.
const DefaultMaxUploadBytes = 50 * 1024 * 1024

// Ingester turns raw upload bytes into a table, schema, and statistics.
type Ingester struct {
	maxBytes int64
	logger   *slog.Logger
}

// New creates an Ingester. maxBytes <= 0 selects the default cap.
func New(maxBytes int64, logger *slog.Logger) *Ingester {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{maxBytes: maxBytes, logger: logger.With("component", "ingest")}
}

// Ingest parses raw bytes in the declared format. Unknown formats fail with
// UnsupportedFormatError; supported-but-broken content fails with
// ParseError. The returned table is fully typed and consistent with the
// returned schema and statistics.
func (ing *Ingester) Ingest(ctx context.Context, raw []byte, declaredFormat string) (*domain.Table, domain.Schema, domain.Statistics, error) {
	if int64(len(raw)) > ing.maxBytes {
		return nil, nil, domain.Statistics{}, domain.ErrParse("file-too-large",
			"upload is %d bytes, limit is %d", len(raw), ing.maxBytes)
	}
	if len(raw) == 0 {
		return nil, nil, domain.Statistics{}, domain.ErrParse("empty-file", "upload is empty")
	}

	format := NormalizeFormat(declaredFormat)
	var (
		header  []string
		records [][]string
		table   *domain.Table
		err     error
	)
	switch format {
	case FormatCSV:
		header, records, err = parseDelimited(raw, ',')
	case FormatTSV:
		header, records, err = parseDelimited(raw, '\t')
	case FormatXLSX:
		header, records, err = parseXLSX(raw)
	case FormatText:
		header, records, err = parseText(raw)
	case FormatJSON:
		table, err = parseJSON(raw)
	default:
		return nil, nil, domain.Statistics{}, domain.ErrUnsupportedFormat(declaredFormat)
	}
	if err != nil {
		return nil, nil, domain.Statistics{}, err
	}
	if table == nil {
		table, err = buildTable(ctx, header, records)
		if err != nil {
			return nil, nil, domain.Statistics{}, err
		}
	}

	schema := domain.DeriveSchema(table)
	stats := domain.ComputeStatistics(table)
	ing.logger.Debug("ingested upload",
		"format", format,
		"rows", stats.TotalRows,
		"columns", stats.TotalColumns,
		"duplicates", stats.DuplicateRows,
	)
	return table, schema, stats, nil
}
