package ingest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// parseJSON accepts an array of objects or line-delimited objects. Object
// keys become columns in first-seen order; rows missing a key hold nil.
// JSON's own types are trusted (numbers, booleans, null); nested values
// are kept as their compact JSON text. Text-format type inference does not
// run on JSON input.
func parseJSON(raw []byte) (*domain.Table, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, domain.ErrParse("empty-file", "no JSON content")
	}

	var (
		objects []json.RawMessage
		err     error
	)
	switch trimmed[0] {
	case '[':
		objects, err = decodeArray(trimmed)
	case '{':
		objects, err = decodeLines(trimmed)
	default:
		err = domain.ErrParse("malformed-json", "expected an array of objects or line-delimited objects")
	}
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, domain.ErrParse("no-rows", "JSON input holds no records")
	}

	var (
		names []string
		cols  = make(map[string][]any)
	)
	for i, obj := range objects {
		keys, vals, err := objectEntries(obj)
		if err != nil {
			return nil, domain.ErrParse("malformed-json", "record %d: %v", i+1, err)
		}
		for _, k := range keys {
			if _, seen := cols[k]; !seen {
				names = append(names, k)
				cols[k] = make([]any, i) // backfill rows that predate the column
			}
		}
		for _, k := range names {
			cols[k] = append(cols[k], vals[k]) // missing keys append nil
		}
	}

	columns := make([]domain.Column, len(names))
	for i, name := range names {
		columns[i] = domain.Column{Name: name, Cells: cols[name]}
	}
	table, err := domain.NewTable(columns...)
	if err != nil {
		return nil, domain.ErrParse("malformed-json", "%v", err)
	}
	return table, nil
}

func decodeArray(raw []byte) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil { // opening '['
		return nil, domain.ErrParse("malformed-json", "%v", err)
	}
	var out []json.RawMessage
	for dec.More() {
		var rm json.RawMessage
		if err := dec.Decode(&rm); err != nil {
			return nil, domain.ErrParse("malformed-json", "record %d: %v", len(out)+1, err)
		}
		out = append(out, rm)
	}
	return out, nil
}

func decodeLines(raw []byte) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			return nil, domain.ErrParse("malformed-json", "line %d is not valid JSON", len(out)+1)
		}
		out = append(out, json.RawMessage(line))
	}
	return out, nil
}

// objectEntries walks one object at the token level so key order is
// preserved, decoding each value as raw JSON.
func objectEntries(rm json.RawMessage) ([]string, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(rm))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, domain.ErrParse("non-object-row", "records must be JSON objects")
	}
	var (
		keys []string
		vals = make(map[string]any)
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, domain.ErrParse("malformed-json", "unexpected key token")
		}
		var valRaw json.RawMessage
		if err := dec.Decode(&valRaw); err != nil {
			return nil, nil, err
		}
		if _, dup := vals[key]; !dup {
			keys = append(keys, key)
		}
		vals[key] = jsonCell(valRaw)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, nil, err
	}
	return keys, vals, nil
}

func jsonCell(rm json.RawMessage) any {
	t := bytes.TrimSpace(rm)
	if len(t) == 0 {
		return nil
	}
	switch t[0] {
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err == nil {
			return s
		}
		return string(t)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, t); err == nil {
			return buf.String()
		}
		return string(t)
	case 't':
		return true
	case 'f':
		return false
	case 'n':
		return nil
	default:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return f
		}
		return string(t)
	}
}
