package extract

// Row is one warehouse row keyed by column name.
type Row = map[string]any

var (
	textArrayColumns = map[string]bool{
		"jobSearchenvironment": true,
		"skills":               true,
	}
	structArrayColumns = map[string]bool{
		"education":   true,
		"experiences": true,
		"locations":   true,
	}
	structColumns = map[string]bool{
		"candidate_activity": true,
	}
)

// ConvertRow replaces empty values by column kind: text and struct arrays
// become [], the activity struct becomes {} and any other null becomes "".
// Non-empty values pass through untouched.
func ConvertRow(row Row) Row {
	out := make(Row, len(row))
	for key, value := range row {
		switch {
		case textArrayColumns[key], structArrayColumns[key]:
			if isEmpty(value) {
				value = []any{}
			}
		case structColumns[key]:
			if isEmpty(value) {
				value = map[string]any{}
			}
		case value == nil:
			value = ""
		}
		out[key] = value
	}
	return out
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case string:
		return t == ""
	default:
		return false
	}
}
