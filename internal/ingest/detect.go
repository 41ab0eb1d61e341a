package ingest

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Canonical format names. NormalizeFormat maps declared aliases onto these;
// anything else passes through so UnsupportedFormat can name it.
const (
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatText = "txt"
)

var formatAliases = map[string]string{
	"csv":    FormatCSV,
	"tsv":    FormatTSV,
	"tab":    FormatTSV,
	"json":   FormatJSON,
	"ndjson": FormatJSON,
	"jsonl":  FormatJSON,
	"xlsx":   FormatXLSX,
	"xls":    FormatXLSX,
	"txt":    FormatText,
	"text":   FormatText,
}

// NormalizeFormat canonicalizes a declared format name ("CSV", ".json",
// "jsonl", ...). Unknown names are returned lowercased and untrimmed of
// meaning so error messages can echo them.
func NormalizeFormat(declared string) string {
	f := strings.ToLower(strings.TrimSpace(declared))
	f = strings.TrimPrefix(f, ".")
	if canonical, ok := formatAliases[f]; ok {
		return canonical
	}
	return f
}

// DetectFormat picks a format from the upload filename, falling back to
// content sniffing when the extension is missing or unknown. The declared
// format always wins over sniffing; this is only the fallback chain.
func DetectFormat(filename string, raw []byte) string {
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		if canonical, ok := formatAliases[strings.ToLower(ext)]; ok {
			return canonical
		}
		return strings.ToLower(ext)
	}
	return sniffFormat(raw)
}

func sniffFormat(raw []byte) string {
	if bytes.HasPrefix(raw, []byte("PK\x03\x04")) {
		return FormatXLSX
	}
	trimmed := bytes.TrimLeft(raw, " \t\r\n\xef\xbb\xbf")
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	firstLine := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		firstLine = raw[:i]
	}
	switch {
	case bytes.ContainsRune(firstLine, '\t'):
		return FormatTSV
	case bytes.ContainsRune(firstLine, ','):
		return FormatCSV
	default:
		return FormatText
	}
}
