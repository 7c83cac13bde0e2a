package storage

import (
	"fmt"
	"slices"
)

// DataType is a store-neutral property type.
type DataType string

const (
	DataTypeText        DataType = "text"
	DataTypeTextArray   DataType = "text[]"
	DataTypeInt         DataType = "int"
	DataTypeBoolean     DataType = "boolean"
	DataTypeDate        DataType = "date"
	DataTypeObject      DataType = "object"
	DataTypeObjectArray DataType = "object[]"
)

// DefaultCollection is the collection candidate records are loaded into.
const DefaultCollection = "Candidate"

// DefaultVectorizerModule is the vectorizer used when none is configured.
const DefaultVectorizerModule = "text2vec-openai"

// Property describes one field of a collection. Nested is only meaningful
// for object and object[] properties.
type Property struct {
	Name     string
	DataType DataType
	Nested   []Property
}

// VectorizerPolicy selects which text fields the store embeds automatically.
// Fields lists top-level property names; an empty list means every text field.
type VectorizerPolicy struct {
	Module string
	Model  string
	Fields []string
}

// Vectorizes reports whether the policy covers the named top-level property.
func (p VectorizerPolicy) Vectorizes(name string) bool {
	if p.Module == "" || p.Module == "none" {
		return false
	}
	return len(p.Fields) == 0 || slices.Contains(p.Fields, name)
}

// CollectionDefinition is the full description of a collection.
type CollectionDefinition struct {
	Name       string
	Properties []Property
	Vectorizer VectorizerPolicy
}

// Property returns the top-level property with the given name.
func (d *CollectionDefinition) Property(name string) (Property, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Validate checks the definition for structural problems.
func (d *CollectionDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: collection name is empty", ErrRejected)
	}
	seen := make(map[string]struct{}, len(d.Properties))
	for _, p := range d.Properties {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: duplicate property %q", ErrRejected, p.Name)
		}
		seen[p.Name] = struct{}{}
		nested := p.DataType == DataTypeObject || p.DataType == DataTypeObjectArray
		if nested != (len(p.Nested) > 0) {
			return fmt.Errorf("%w: property %q of type %s has mismatched nested properties", ErrRejected, p.Name, p.DataType)
		}
	}
	for _, f := range d.Vectorizer.Fields {
		p, ok := d.Property(f)
		if !ok {
			return fmt.Errorf("%w: vectorized field %q is not a property", ErrRejected, f)
		}
		if p.DataType != DataTypeText && p.DataType != DataTypeTextArray {
			return fmt.Errorf("%w: vectorized field %q is not text", ErrRejected, f)
		}
	}
	return nil
}

// DefaultVectorizedFields are the free-text fields embedded for semantic search.
var DefaultVectorizedFields = []string{
	"name",
	"candidate_values",
	"candidate_strengths",
	"jobSearchenvironment",
	"skills",
}

// CandidateCollection returns the fixed definition for candidate records.
func CandidateCollection(name string, policy VectorizerPolicy) *CollectionDefinition {
	if name == "" {
		name = DefaultCollection
	}
	return &CollectionDefinition{
		Name: name,
		Properties: []Property{
			{Name: "name", DataType: DataTypeText},
			{Name: "candidate_values", DataType: DataTypeText},
			{Name: "candidate_strengths", DataType: DataTypeText},
			{Name: "jobSearchenvironment", DataType: DataTypeTextArray},
			{Name: "skills", DataType: DataTypeTextArray},
			{Name: "education", DataType: DataTypeObjectArray, Nested: []Property{
				{Name: "degree", DataType: DataTypeText},
				{Name: "university_start_year", DataType: DataTypeInt},
				{Name: "university_end_year", DataType: DataTypeInt},
				{Name: "education_area", DataType: DataTypeText},
				{Name: "school_name", DataType: DataTypeText},
			}},
			{Name: "experiences", DataType: DataTypeObjectArray, Nested: []Property{
				{Name: "title", DataType: DataTypeText},
				{Name: "employer", DataType: DataTypeText},
				{Name: "description", DataType: DataTypeText},
				{Name: "is_current", DataType: DataTypeBoolean},
				{Name: "start_date", DataType: DataTypeDate},
				{Name: "left_date", DataType: DataTypeDate},
				{Name: "duration_years", DataType: DataTypeText},
			}},
			{Name: "locations", DataType: DataTypeObjectArray, Nested: []Property{
				{Name: "country", DataType: DataTypeText},
				{Name: "state", DataType: DataTypeText},
				{Name: "city", DataType: DataTypeText},
			}},
			{Name: "willing_to_relocate", DataType: DataTypeBoolean},
			{Name: "mentra_profile_link", DataType: DataTypeText},
			{Name: "candidate_activity", DataType: DataTypeObject, Nested: []Property{
				{Name: "account_age_days", DataType: DataTypeText},
				{Name: "count_of_logins", DataType: DataTypeText},
				{Name: "last_login", DataType: DataTypeDate},
			}},
		},
		Vectorizer: policy,
	}
}
