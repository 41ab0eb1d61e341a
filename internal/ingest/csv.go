package ingest

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseDelimited reads comma- or tab-separated text. The first record is
// the header. Parsing is lenient: quotes may be lazy and records may have
// ragged field counts, which are padded or truncated to the header width.
func parseDelimited(raw []byte, comma rune) ([]string, [][]string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, domain.ErrParse("empty-file", "no header row")
		}
		return nil, nil, domain.ErrParse("malformed-csv", "reading header: %v", err)
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, domain.ErrParse("malformed-csv", "reading row %d: %v", len(records)+2, err)
		}
		records = append(records, padRecord(rec, len(header)))
	}
	return header, records, nil
}

func padRecord(rec []string, width int) []string {
	if len(rec) == width {
		return rec
	}
	out := make([]string, width)
	copy(out, rec)
	return out
}
