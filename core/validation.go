// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed candidate.schema.json
var candidateSchemaJSON string

// CandidateSchemaJSON returns the JSON Schema a normalized CandidateRecord must satisfy.
func CandidateSchemaJSON() string {
	return candidateSchemaJSON
}

var compiledCandidateSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(candidateSchemaJSON))
})

// ValidateCandidateRecord checks a CandidateRecord against the target schema.
//
// Validation rules:
//   - All text, boolean, sequence and activity fields are present (sequences never null)
//   - Year fields, when present, are positive integers
//   - Date fields, when present, are canonical midnight-UTC timestamps
//   - No fields outside the fixed target shape
func ValidateCandidateRecord(record *CandidateRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidCandidateRecord)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCandidateRecord, err)
	}

	return ValidateCandidateDocument(data)
}

// ValidateCandidateDocument checks a serialized record against the target schema.
func ValidateCandidateDocument(data []byte) error {
	schema, err := compiledCandidateSchema()
	if err != nil {
		return fmt.Errorf("loading candidate schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCandidateRecord, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		problems = append(problems, field+": "+desc.Description())
	}
	return fmt.Errorf("%w: %s", ErrInvalidCandidateRecord, strings.Join(problems, "; "))
}

