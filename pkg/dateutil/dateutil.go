// Package dateutil normalizes the date formats that reach the service from
// upstream systems (ISO strings, 6- and 8-digit numeric codes) into a single
// canonical YYYY-MM-DD form, and provides the day arithmetic the admission
// and statistics code depends on.
package dateutil

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const Layout = "2006-01-02"

// Two-digit years at or below the pivot resolve to 20YY, above it to 19YY.
const pivotYear = 50

// UnparseableDateError reports a raw value that matches none of the accepted
// date formats. Callers recover by substituting a fallback date; the error
// never propagates past the call site that owns the raw input.
type UnparseableDateError struct {
	Raw string
}

func (e *UnparseableDateError) Error() string {
	return fmt.Sprintf("unparseable date: %q", e.Raw)
}

// Normalize converts a raw date value into canonical YYYY-MM-DD form.
// Canonical input passes through after validation. Otherwise all non-digit
// characters are stripped: 8 digits are read as YYYYMMDD, 6 digits as YYMMDD
// with the documented pivot rule. Anything else is an *UnparseableDateError.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 10 && trimmed[4] == '-' && trimmed[7] == '-' {
		if _, err := time.Parse(Layout, trimmed); err == nil {
			return trimmed, nil
		}
	}

	var digits strings.Builder
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	var compact string
	switch digits.Len() {
	case 8:
		compact = digits.String()
	case 6:
		d := digits.String()
		if d[:2] <= fmt.Sprintf("%02d", pivotYear) {
			compact = "20" + d
		} else {
			compact = "19" + d
		}
	default:
		return "", &UnparseableDateError{Raw: raw}
	}

	t, err := time.Parse("20060102", compact)
	if err != nil {
		return "", &UnparseableDateError{Raw: raw}
	}
	return t.Format(Layout), nil
}

// NormalizeOr normalizes raw, substituting fallback when raw is empty or
// unparseable.
func NormalizeOr(raw, fallback string) string {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	d, err := Normalize(raw)
	if err != nil {
		return fallback
	}
	return d
}

// MustParse parses a canonical date into a time.Time at UTC midnight.
// It is intended for dates that already passed Normalize.
func MustParse(date string) time.Time {
	t, _ := time.Parse(Layout, date)
	return t
}

// DaysBetween returns the exclusive day difference b - a. Same day is 0,
// the next day is 1; negative when b precedes a.
func DaysBetween(a, b string) int {
	ta := MustParse(a)
	tb := MustParse(b)
	return int(tb.Sub(ta).Hours() / 24)
}

// SpanDays returns the inclusive length of the span [a, b] in days.
// A single-day span is 1.
func SpanDays(a, b string) int {
	return DaysBetween(a, b) + 1
}

// Today formats now as a canonical date.
func Today(now time.Time) string {
	return now.Format(Layout)
}

// MonthBounds returns the first and last day of a YYYY-MM month.
func MonthBounds(yearMonth string) (first, last string, err error) {
	t, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: %w", yearMonth, err)
	}
	first = t.Format(Layout)
	last = t.AddDate(0, 1, -1).Format(Layout)
	return first, last, nil
}

// Max returns the later of two canonical dates.
func Max(a, b string) string {
	if a > b {
		return a
	}
	return b
}

// Min returns the earlier of two canonical dates.
func Min(a, b string) string {
	if a < b {
		return a
	}
	return b
}
