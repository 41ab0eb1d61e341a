package domain

import (
	"strconv"
	"strings"
	"time"
)

// Cell values are restricted to nil, int64, float64, bool, string, and
// time.Time. Helpers in this file are the single source of truth for cell
// comparison, ordering, and text formatting so that every consumer (ingest,
// statistics, sandbox, export) agrees on semantics.

// NullTokens are the case-insensitive text values treated as missing during
// ingest and cleaning.
var NullTokens = []string{"", "null", "none", "nan", "n/a", "na", "-", "--", "---"}

// DateLayouts is the fixed set of accepted datetime patterns, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// IsNullToken reports whether the trimmed, lowercased text counts as missing.
func IsNullToken(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	for _, n := range NullTokens {
		if t == n {
			return true
		}
	}
	return false
}

// ParseDate tries each accepted layout in order.
func ParseDate(s string) (time.Time, bool) {
	t := strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if v, err := time.Parse(layout, t); err == nil {
			return v, true
		}
	}
	return time.Time{}, false
}

// FormatCell renders a cell as text. Datetimes with a zero clock render as a
// bare date; nil renders empty. Floats use the shortest round-trip form.
func FormatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(c, 10)
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	case time.Time:
		if c.Hour() == 0 && c.Minute() == 0 && c.Second() == 0 && c.Nanosecond() == 0 {
			return c.Format("2006-01-02")
		}
		return c.Format(time.RFC3339)
	case string:
		return c
	default:
		return ""
	}
}

// CellEqual compares two cells for value equality. Integers and floats
// compare numerically across kinds, matching duplicate detection semantics.
func CellEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	af, aNum := numericCell(a)
	bf, bNum := numericCell(b)
	if aNum && bNum {
		return af == bf
	}
	return a == b
}

// CellLess imposes a deterministic total order across cell kinds:
// nil < bool < numeric < datetime < string, with natural ordering inside
// each kind. Used by sorts and min/max so results never depend on input
// permutation beyond stability.
func CellLess(a, b any) bool {
	ra, rb := cellRank(a), cellRank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case rankBool:
		return !a.(bool) && b.(bool)
	case rankNumber:
		af, _ := numericCell(a)
		bf, _ := numericCell(b)
		return af < bf
	case rankTime:
		return a.(time.Time).Before(b.(time.Time))
	case rankString:
		return a.(string) < b.(string)
	}
	return false
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankTime
	rankString
)

func cellRank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case int64, float64:
		return rankNumber
	case time.Time:
		return rankTime
	default:
		return rankString
	}
}

func numericCell(v any) (float64, bool) {
	switch c := v.(type) {
	case int64:
		return float64(c), true
	case float64:
		return c, true
	}
	return 0, false
}

// cellKey encodes a cell for row-identity hashing. Kind tags keep 1 and
// "1" distinct; strings are quoted so separators cannot collide. An int64
// shares the float key only while float64 can represent it exactly, which
// keeps int64(1) and float64(1.0) duplicates of each other without
// colliding distinct integers past 2^53.
func cellKey(b *strings.Builder, v any) {
	switch c := v.(type) {
	case nil:
		b.WriteString("n")
	case int64:
		if f := float64(c); int64(f) == c {
			b.WriteString("f:")
			b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		} else {
			b.WriteString("i:")
			b.WriteString(strconv.FormatInt(c, 10))
		}
	case float64:
		b.WriteString("f:")
		b.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
	case bool:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(c))
	case time.Time:
		b.WriteString("t:")
		b.WriteString(strconv.FormatInt(c.UnixNano(), 10))
	case string:
		b.WriteString("s:")
		b.WriteString(strconv.Quote(c))
	}
}
