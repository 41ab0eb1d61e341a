package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Rule-based cleaning: deterministic per-column transformations keyed on
// column-name hints. This is the "standard clean" applied by the fixed
// transformation path and by table.clean() inside the sandbox. Numeric,
// boolean, and datetime cells pass through untouched; only string cells are
// rewritten.

type cleanKind int

const (
	cleanGeneric cleanKind = iota
	cleanEmail
	cleanPhone
	cleanDate
	cleanName
	cleanCurrency
)

var cleanHints = []struct {
	kind  cleanKind
	hints []string
}{
	{cleanEmail, []string{"email", "mail", "e-mail"}},
	{cleanPhone, []string{"phone", "tel", "mobile", "cell"}},
	{cleanDate, []string{"date", "time", "dob", "birth", "created", "updated"}},
	{cleanName, []string{"name", "first", "last"}},
	{cleanCurrency, []string{"price", "amount", "cost", "salary", "revenue", "total"}},
}

// cleanDateLayouts is the cleaner's own accepted pattern order; ambiguous
// day/month inputs resolve to the earliest matching layout.
var cleanDateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"01-02-2006",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	nonDigit     = regexp.MustCompile(`\D`)
	nameStrip    = regexp.MustCompile(`[^\w\s'-]`)
	currencyMark = regexp.MustCompile(`[$€£¥,]`)
)

// CleanStandard applies the rule set to every column and trims column
// names. The receiver is unchanged.
func (t *Table) CleanStandard() *Table {
	out := t.Clone()
	taken := make(map[string]bool, len(out.Columns))
	for _, c := range out.Columns {
		taken[c.Name] = true
	}
	for j := range out.Columns {
		name := out.Columns[j].Name
		if trimmed := strings.TrimSpace(name); trimmed != name && trimmed != "" && !taken[trimmed] {
			taken[trimmed] = true
			out.Columns[j].Name = trimmed
			name = trimmed
		}
		kind := classifyColumn(name)
		for i, v := range out.Columns[j].Cells {
			out.Columns[j].Cells[i] = cleanCell(v, kind)
		}
	}
	return out
}

func classifyColumn(name string) cleanKind {
	lower := strings.ToLower(name)
	for _, entry := range cleanHints {
		for _, hint := range entry.hints {
			if strings.Contains(lower, hint) {
				return entry.kind
			}
		}
	}
	return cleanGeneric
}

func cleanCell(v any, kind cleanKind) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if IsNullToken(s) {
		return nil
	}
	s = strings.TrimSpace(s)
	switch kind {
	case cleanEmail:
		return cleanEmailValue(s)
	case cleanPhone:
		return cleanPhoneValue(s)
	case cleanDate:
		return cleanDateValue(s)
	case cleanName:
		return cleanNameValue(s)
	case cleanCurrency:
		return cleanCurrencyValue(s)
	default:
		return collapseSpaces(s)
	}
}

func cleanEmailValue(s string) any {
	s = strings.ToLower(s)
	s = spaceRun.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "..", ".")
	s = strings.ReplaceAll(s, "@@", "@")
	if strings.Contains(s, "@") && strings.Contains(s, ".") {
		return s
	}
	return nil
}

func cleanPhoneValue(s string) any {
	digits := nonDigit.ReplaceAllString(s, "")
	switch {
	case len(digits) == 10:
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	case len(digits) == 11 && digits[0] == '1':
		return "+1 (" + digits[1:4] + ") " + digits[4:7] + "-" + digits[7:]
	case digits == "":
		return nil
	default:
		return digits
	}
}

func cleanDateValue(s string) any {
	for _, layout := range cleanDateLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v
		}
	}
	return s
}

func cleanNameValue(s string) any {
	s = collapseSpaces(s)
	s = nameStrip.ReplaceAllString(s, "")
	return titleCase(s)
}

func cleanCurrencyValue(s string) any {
	stripped := currencyMark.ReplaceAllString(s, "")
	f, err := strconv.ParseFloat(strings.TrimSpace(stripped), 64)
	if err != nil {
		return s
	}
	return math.Round(f*100) / 100
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// titleCase uppercases every letter that follows a non-letter and
// lowercases the rest, so "o'brien-smith" becomes "O'Brien-Smith".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
