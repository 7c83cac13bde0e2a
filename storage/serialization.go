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


package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/talentload/core"
)

// MarshalRecord serializes a CandidateRecord to its JSON wire form.
func MarshalRecord(record *core.CandidateRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRecord deserializes a CandidateRecord from its JSON wire form.
func UnmarshalRecord(data []byte) (*core.CandidateRecord, error) {
	record := core.NewCandidateRecord()
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// RecordProperties converts a record into the generic property map used by
// document stores. Absent dates and years are omitted rather than set to null.
func RecordProperties(record *core.CandidateRecord) (map[string]any, error) {
	data, err := MarshalRecord(record)
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return props, nil
}

// RecordFromProperties is the inverse of RecordProperties. Keys that are not
// part of the record shape are ignored.
func RecordFromProperties(props map[string]any) (*core.CandidateRecord, error) {
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return UnmarshalRecord(data)
}
