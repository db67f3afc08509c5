package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Date layouts accepted on input. Output dates are always dateFormat.
const dateFormat = "2006-01-02"

var dateLayouts = []string{
	dateFormat,
	"01/02/2006",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// longDigits matches account and reference numbers embedded in descriptions.
var longDigits = regexp.MustCompile(`\b\d{10,}\b`)

// NormalizeDescription applies NFKC, drops control characters, lowercases,
// removes standalone digit runs of ten or more and collapses whitespace.
func NormalizeDescription(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = longDigits.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// ParseAmount parses a signed amount, ignoring thousands separators and a
// leading currency symbol.
func ParseAmount(s string) (float64, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	clean = strings.Replace(clean, "$", "", 1)
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

// NormalizeDate reformats a date as YYYY-MM-DD. Empty input stays empty.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateFormat), nil
		}
	}
	return "", fmt.Errorf("parsing date %q", s)
}

// textValue coerces a decoded JSON value to text.
func textValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return "", false
	}
}

// amountValue coerces a decoded JSON value to an amount.
func amountValue(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return ParseAmount(x)
	case fmt.Stringer:
		return ParseAmount(x.String())
	default:
		return 0, fmt.Errorf("unsupported amount type %T", v)
	}
}
