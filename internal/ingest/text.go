package ingest

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// parseText turns an unstructured document into best-effort row records:
// one row per non-empty line, in a single "text" column.
func parseText(raw []byte) ([]string, [][]string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var records [][]string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, []string{line})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, domain.ErrParse("malformed-text", "scanning lines: %v", err)
	}
	if len(records) == 0 {
		return nil, nil, domain.ErrParse("no-rows", "document holds no text lines")
	}
	return []string{"text"}, records, nil
}
