package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToText(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "nil", input: nil, want: ""},
		{name: "string", input: "hello", want: "hello"},
		{name: "json number keeps literal", input: json.Number("3.50"), want: "3.50"},
		{name: "float", input: 2.5, want: "2.5"},
		{name: "whole float", input: float64(42), want: "42"},
		{name: "bool", input: true, want: "true"},
		{name: "list", input: []any{"a", "b"}, want: `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toText(tt.input))
		})
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  bool
	}{
		{name: "nil", input: nil, want: false},
		{name: "true", input: true, want: true},
		{name: "false", input: false, want: false},
		{name: "yes", input: "yes", want: true},
		{name: "no", input: "No", want: false},
		{name: "string false", input: "FALSE", want: false},
		{name: "string zero", input: "0", want: false},
		{name: "empty string", input: "", want: false},
		{name: "other text", input: "maybe", want: true},
		{name: "number one", input: json.Number("1"), want: true},
		{name: "number zero", input: json.Number("0"), want: false},
		{name: "float zero", input: 0.0, want: false},
		{name: "empty list", input: []any{}, want: false},
		{name: "non-empty list", input: []any{1}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toBool(tt.input))
		})
	}
}

func TestToYear(t *testing.T) {
	year := func(v int) *int { return &v }

	tests := []struct {
		name  string
		input any
		want  *int
	}{
		{name: "nil", input: nil, want: nil},
		{name: "json number", input: json.Number("2012"), want: year(2012)},
		{name: "whole float", input: 2012.0, want: year(2012)},
		{name: "string", input: " 2012 ", want: year(2012)},
		{name: "zero sentinel", input: json.Number("0"), want: nil},
		{name: "negative", input: -5, want: nil},
		{name: "fractional", input: 2012.5, want: nil},
		{name: "free text", input: "twenty twelve", want: nil},
		{name: "bool", input: true, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toYear(tt.input))
		})
	}
}

func TestToDate(t *testing.T) {
	assert.Nil(t, toDate(nil, 2024))
	assert.Nil(t, toDate(true, 2024))
	assert.Nil(t, toDate([]any{"2015"}, 2024))
	assert.Nil(t, toDate("garbage", 2024))

	got := toDate(json.Number("2015"), 2024)
	if assert.NotNil(t, got) {
		assert.Equal(t, "2015-01-01T00:00:00+00:00", *got)
	}
}

func TestToTextList(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{name: "nil", input: nil, want: []string{}},
		{name: "object", input: map[string]any{"a": 1}, want: []string{}},
		{name: "bare string", input: "Go", want: []string{"Go"}},
		{name: "blank string", input: "  ", want: []string{}},
		{name: "mixed list", input: []any{"Go", json.Number("7"), nil, true}, want: []string{"Go", "7", "true"}},
		{name: "scalar", input: json.Number("3"), want: []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toTextList(tt.input)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}
