package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "full date", input: "2015-06-01", want: "2015-06-01T00:00:00+00:00", wantOK: true},
		{name: "year only", input: "2015", want: "2015-01-01T00:00:00+00:00", wantOK: true},
		{name: "year and month", input: "2015-06", want: "2015-06-01T00:00:00+00:00", wantOK: true},
		{name: "time portion ignored", input: "2015-06-01T12:30:00Z", want: "2015-06-01T00:00:00+00:00", wantOK: true},
		{name: "space separated time ignored", input: "2015-06-01 08:00", want: "2015-06-01T00:00:00+00:00", wantOK: true},
		{name: "canonical input unchanged", input: "2015-06-01T00:00:00+00:00", want: "2015-06-01T00:00:00+00:00", wantOK: true},
		{name: "single digit month and day", input: "2015-1-5", want: "2015-01-05T00:00:00+00:00", wantOK: true},
		{name: "surrounding whitespace", input: "  2015-06-01 ", want: "2015-06-01T00:00:00+00:00", wantOK: true},
		{name: "two digit year in last century", input: "99-01-01", want: "1999-01-01T00:00:00+00:00", wantOK: true},
		{name: "two digit year this century", input: "24-03-05", want: "2024-03-05T00:00:00+00:00", wantOK: true},
		{name: "two digit year at window edge", input: "29-01-01", want: "2029-01-01T00:00:00+00:00", wantOK: true},
		{name: "two digit year past window edge", input: "30-01-01", want: "1930-01-01T00:00:00+00:00", wantOK: true},
		{name: "lower bound", input: "1900-01-01", want: "1900-01-01T00:00:00+00:00", wantOK: true},
		{name: "upper bound", input: "2029-12-31", want: "2029-12-31T00:00:00+00:00", wantOK: true},
		{name: "before lower bound", input: "1850-01-01", wantOK: false},
		{name: "after upper bound", input: "2030-01-01", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "blank", input: "   ", wantOK: false},
		{name: "free text", input: "not a date", wantOK: false},
		{name: "slash separated", input: "2015/06/01", wantOK: false},
		{name: "day overflow", input: "2015-02-30", wantOK: false},
		{name: "month out of range", input: "2015-13-01", wantOK: false},
		{name: "zero day", input: "2015-06-00", wantOK: false},
		{name: "too many parts", input: "2015-06-01-02", wantOK: false},
		{name: "zero", input: "0", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.input, 2024)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate_Idempotent(t *testing.T) {
	inputs := []string{"2015", "99-01-01", "2020-02-29", "2001-07-04T10:00:00Z"}

	for _, input := range inputs {
		first, ok := NormalizeDate(input, 2024)
		assert.True(t, ok, input)

		second, ok := NormalizeDate(first, 2024)
		assert.True(t, ok, first)
		assert.Equal(t, first, second)
	}
}

func TestParseDate_UTCMidnight(t *testing.T) {
	got, ok := ParseDate("2012-12-12T23:59:59+05:00", 2024)
	assert.True(t, ok)
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, "UTC", got.Location().String())
	assert.Equal(t, 12, got.Day())
}

func FuzzNormalizeDate(f *testing.F) {
	for _, seed := range []string{
		"", "2015", "2015-06", "2015-06-01", "15-06-01", "99-12-31", "2015-02-30",
		"2015-06-01T12:30:00Z", "2015-06-01 08:00", "1899-12-31", "2031-01-01",
		"unknown", "-", "--", "2015--01", "0000-00-00", "２０１５", "2015-6-1", "20150601",
	} {
		f.Add(seed)
	}

	const referenceYear = 2025
	f.Fuzz(func(t *testing.T, raw string) {
		out, ok := NormalizeDate(raw, referenceYear)
		if !ok {
			assert.Empty(t, out)
			return
		}

		parsed, err := time.Parse(CanonicalLayout, out)
		require.NoError(t, err, "output %q for input %q", out, raw)
		assert.Equal(t, out, parsed.Format(CanonicalLayout))
		assert.True(t, parsed.Equal(parsed.Truncate(24*time.Hour)), "not midnight: %q", out)
		assert.GreaterOrEqual(t, parsed.Year(), MinYear)
		assert.LessOrEqual(t, parsed.Year(), referenceYear+FutureYears)

		again, ok := NormalizeDate(out, referenceYear)
		assert.True(t, ok)
		assert.Equal(t, out, again)
	})
}
