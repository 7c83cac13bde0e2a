package normalize

import (
	"strconv"
	"strings"
	"time"
)

const (
	// MinYear is the earliest year accepted in any date field.
	MinYear = 1900

	// FutureYears is how many years past the reference year a date may fall.
	FutureYears = 5

	// CanonicalLayout is the only timestamp format emitted for date fields.
	CanonicalLayout = "2006-01-02T15:04:05-07:00"
)

// NormalizeDate converts date-like text into a canonical midnight-UTC timestamp
// ("YYYY-MM-DDT00:00:00+00:00"). The boolean result is false when the input is
// empty, unparsable, or outside [MinYear, referenceYear+FutureYears].
//
// Accepted shapes are "YYYY", "YYYY-MM" and "YYYY-MM-DD", optionally followed by
// a time portion introduced by 'T' or a space, which is ignored. A two-digit
// year is expanded into the 2000s unless that lands past the validity window,
// in which case it is expanded into the 1900s.
func NormalizeDate(raw string, referenceYear int) (string, bool) {
	t, ok := ParseDate(raw, referenceYear)
	if !ok {
		return "", false
	}
	return t.Format(CanonicalLayout), true
}

// ParseDate applies the NormalizeDate rules and returns the date at midnight UTC.
func ParseDate(raw string, referenceYear int) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return time.Time{}, false
	}
	// Year-only and year-month values default to the first month/day.
	for len(parts) < 3 {
		parts = append(parts, "01")
	}

	year, ok := parseDigits(parts[0])
	if !ok {
		return time.Time{}, false
	}
	if len(parts[0]) == 2 {
		year = expandTwoDigitYear(year, referenceYear)
	}

	month, ok := parseDigits(parts[1])
	if !ok || len(parts[1]) > 2 || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, ok := parseDigits(parts[2])
	if !ok || len(parts[2]) > 2 || day < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject it.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}

	if year < MinYear || year > referenceYear+FutureYears {
		return time.Time{}, false
	}

	return t, true
}

// expandTwoDigitYear maps yy to 20yy, falling back to 19yy when 20yy is beyond
// the validity window for referenceYear.
func expandTwoDigitYear(yy, referenceYear int) int {
	if 2000+yy <= referenceYear+FutureYears {
		return 2000 + yy
	}
	return 1900 + yy
}

// parseDigits parses a short, unsigned run of ASCII digits.
func parseDigits(s string) (int, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
