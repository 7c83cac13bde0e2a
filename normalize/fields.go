package normalize

import (
	"github.com/poiesic/talentload/core"
)

// Rule names the coercion applied to a field.
type Rule string

const (
	RuleText     Rule = "text"
	RuleTextList Rule = "text[]"
	RuleBool     Rule = "bool"
	RuleYear     Rule = "year"
	RuleDate     Rule = "date"
	RuleEntries  Rule = "entries"
	RuleObject   Rule = "object"
)

// state is the per-call context shared by all field rules.
type state struct {
	referenceYear int
	report        *Report
}

// field binds a source key to a coercion rule and a destination in T.
type field[T any] struct {
	name   string
	rule   Rule
	nested []ruleEntry
	apply  func(s *state, v any, dst *T)
}

// ruleEntry is the type-erased view of a field used by CoercionTable.
type ruleEntry struct {
	name   string
	rule   Rule
	nested []ruleEntry
}

func (f field[T]) entry() ruleEntry {
	return ruleEntry{name: f.name, rule: f.rule, nested: f.nested}
}

func entries[T any](fields []field[T]) []ruleEntry {
	out := make([]ruleEntry, len(fields))
	for i, f := range fields {
		out[i] = f.entry()
	}
	return out
}

func textField[T any](name string, ref func(*T) *string) field[T] {
	return field[T]{name: name, rule: RuleText, apply: func(_ *state, v any, dst *T) {
		*ref(dst) = toText(v)
	}}
}

func textListField[T any](name string, ref func(*T) *[]string) field[T] {
	return field[T]{name: name, rule: RuleTextList, apply: func(_ *state, v any, dst *T) {
		*ref(dst) = toTextList(v)
	}}
}

func boolField[T any](name string, ref func(*T) *bool) field[T] {
	return field[T]{name: name, rule: RuleBool, apply: func(_ *state, v any, dst *T) {
		*ref(dst) = toBool(v)
	}}
}

func yearField[T any](name string, ref func(*T) **int) field[T] {
	return field[T]{name: name, rule: RuleYear, apply: func(_ *state, v any, dst *T) {
		*ref(dst) = toYear(v)
	}}
}

func dateField[T any](name string, ref func(*T) **string) field[T] {
	return field[T]{name: name, rule: RuleDate, apply: func(s *state, v any, dst *T) {
		*ref(dst) = toDate(v, s.referenceYear)
	}}
}

// entriesField normalizes a sequence of nested objects. Non-object elements
// and objects with no recognized keys are dropped and reported.
func entriesField[T, E any](name string, fields []field[E], ref func(*T) *[]E) field[T] {
	return field[T]{name: name, rule: RuleEntries, nested: entries(fields), apply: func(s *state, v any, dst *T) {
		out := []E{}
		var items []any
		switch t := v.(type) {
		case nil:
		case []any:
			items = t
		case map[string]any:
			// A lone object where a sequence is expected is treated as one entry.
			items = []any{t}
		default:
			s.report.drop(name, -1, "not a sequence")
		}

		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				s.report.drop(name, i, "not an object")
				continue
			}
			if !hasKnownKey(m, fields) {
				s.report.drop(name, i, "no recognized fields")
				continue
			}
			out = append(out, applyFields(s, m, fields))
		}
		*ref(dst) = out
	}}
}

// objectField normalizes a single nested object; anything else yields the zero value.
func objectField[T, E any](name string, fields []field[E], ref func(*T) *E) field[T] {
	return field[T]{name: name, rule: RuleObject, nested: entries(fields), apply: func(s *state, v any, dst *T) {
		m, _ := v.(map[string]any)
		*ref(dst) = applyFields(s, m, fields)
	}}
}

func applyFields[E any](s *state, m map[string]any, fields []field[E]) E {
	var out E
	for _, f := range fields {
		f.apply(s, m[f.name], &out)
	}
	return out
}

func hasKnownKey[E any](m map[string]any, fields []field[E]) bool {
	for _, f := range fields {
		if _, ok := m[f.name]; ok {
			return true
		}
	}
	return false
}

var educationFields = []field[core.EducationEntry]{
	textField("degree", func(e *core.EducationEntry) *string { return &e.Degree }),
	yearField("university_start_year", func(e *core.EducationEntry) **int { return &e.UniversityStartYear }),
	yearField("university_end_year", func(e *core.EducationEntry) **int { return &e.UniversityEndYear }),
	textField("education_area", func(e *core.EducationEntry) *string { return &e.EducationArea }),
	textField("school_name", func(e *core.EducationEntry) *string { return &e.SchoolName }),
}

var experienceFields = []field[core.ExperienceEntry]{
	textField("title", func(e *core.ExperienceEntry) *string { return &e.Title }),
	textField("employer", func(e *core.ExperienceEntry) *string { return &e.Employer }),
	textField("description", func(e *core.ExperienceEntry) *string { return &e.Description }),
	boolField("is_current", func(e *core.ExperienceEntry) *bool { return &e.IsCurrent }),
	dateField("start_date", func(e *core.ExperienceEntry) **string { return &e.StartDate }),
	dateField("left_date", func(e *core.ExperienceEntry) **string { return &e.LeftDate }),
	textField("duration_years", func(e *core.ExperienceEntry) *string { return &e.DurationYears }),
}

var locationFields = []field[core.LocationEntry]{
	textField("country", func(e *core.LocationEntry) *string { return &e.Country }),
	textField("state", func(e *core.LocationEntry) *string { return &e.State }),
	textField("city", func(e *core.LocationEntry) *string { return &e.City }),
}

var activityFields = []field[core.ActivityRecord]{
	textField("account_age_days", func(a *core.ActivityRecord) *string { return &a.AccountAgeDays }),
	textField("count_of_logins", func(a *core.ActivityRecord) *string { return &a.CountOfLogins }),
	dateField("last_login", func(a *core.ActivityRecord) **string { return &a.LastLogin }),
}

// candidateFields is the coercion table for a whole record. Adding a field to
// the target shape means adding a struct field and one entry here.
var candidateFields = []field[core.CandidateRecord]{
	textField("name", func(r *core.CandidateRecord) *string { return &r.Name }),
	textField("candidate_values", func(r *core.CandidateRecord) *string { return &r.CandidateValues }),
	textField("candidate_strengths", func(r *core.CandidateRecord) *string { return &r.CandidateStrengths }),
	textListField("jobSearchenvironment", func(r *core.CandidateRecord) *[]string { return &r.JobSearchEnvironment }),
	textListField("skills", func(r *core.CandidateRecord) *[]string { return &r.Skills }),
	entriesField("education", educationFields, func(r *core.CandidateRecord) *[]core.EducationEntry { return &r.Education }),
	entriesField("experiences", experienceFields, func(r *core.CandidateRecord) *[]core.ExperienceEntry { return &r.Experiences }),
	entriesField("locations", locationFields, func(r *core.CandidateRecord) *[]core.LocationEntry { return &r.Locations }),
	boolField("willing_to_relocate", func(r *core.CandidateRecord) *bool { return &r.WillingToRelocate }),
	textField("mentra_profile_link", func(r *core.CandidateRecord) *string { return &r.MentraProfileLink }),
	objectField("candidate_activity", activityFields, func(r *core.CandidateRecord) *core.ActivityRecord { return &r.CandidateActivity }),
}

// CoercionTable returns the rule applied to every field, keyed by dotted path
// (for example "education.university_start_year").
func CoercionTable() map[string]Rule {
	out := make(map[string]Rule)
	var walk func(prefix string, es []ruleEntry)
	walk = func(prefix string, es []ruleEntry) {
		for _, e := range es {
			path := prefix + e.name
			out[path] = e.rule
			walk(path+".", e.nested)
		}
	}
	walk("", entries(candidateFields))
	return out
}
