package ingest

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// parseXLSX reads the first sheet of a workbook. The first row is the
// header; remaining rows feed the same text-inference path as CSV.
func parseXLSX(raw []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, domain.ErrParse("malformed-xlsx", "opening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, domain.ErrParse("empty-file", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, domain.ErrParse("malformed-xlsx", "reading sheet %q: %v", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, domain.ErrParse("empty-file", "sheet %q has no rows", sheets[0])
	}

	header := rows[0]
	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, padRecord(row, len(header)))
	}
	return header, records, nil
}
