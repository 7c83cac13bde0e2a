package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// falseWords are the string spellings that coerce to false. Any other
// non-empty string is truthy.
var falseWords = map[string]struct{}{
	"":      {},
	"0":     {},
	"f":     {},
	"false": {},
	"n":     {},
	"no":    {},
	"off":   {},
	"null":  {},
	"none":  {},
}

// toText renders any decoded JSON value as text. Missing values become "".
// Numbers keep their literal spelling when decoded as json.Number.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// toBool coerces by truthiness rather than by type.
func toBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		_, falsy := falseWords[strings.ToLower(strings.TrimSpace(t))]
		return !falsy
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// toYear coerces to a positive integer year. Zero is the source's sentinel
// for missing data, so it and anything unparsable resolve to nil.
func toYear(v any) *int {
	var f float64
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			f = float64(i)
		} else if ff, err := t.Float64(); err == nil {
			f = ff
		} else {
			return nil
		}
	case string:
		ff, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = ff
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	default:
		return nil
	}

	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return nil
	}
	year := int(f)
	return &year
}

// toDate coerces to a canonical timestamp or nil.
func toDate(v any, referenceYear int) *string {
	switch v.(type) {
	case nil, bool, []any, map[string]any:
		return nil
	}
	ts, ok := NormalizeDate(toText(v), referenceYear)
	if !ok {
		return nil
	}
	return &ts
}

// toTextList coerces to a non-nil list of text. A bare scalar becomes a
// single-element list; nulls inside the list are skipped.
func toTextList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case nil, map[string]any:
		return out
	case []any:
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, toText(item))
		}
		return out
	case []string:
		return append(out, t...)
	case string:
		if strings.TrimSpace(t) == "" {
			return out
		}
		return append(out, t)
	default:
		return append(out, toText(t))
	}
}
