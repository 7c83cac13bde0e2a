package storage

import (
	"testing"

	"github.com/poiesic/talentload/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *core.CandidateRecord {
	start := 2010
	login := "2024-03-01T00:00:00+00:00"
	r := core.NewCandidateRecord()
	r.Name = "Grace"
	r.Skills = []string{"COBOL", "leadership"}
	r.Education = []core.EducationEntry{{Degree: "PhD", UniversityStartYear: &start, SchoolName: "Yale"}}
	r.CandidateActivity = core.ActivityRecord{CountOfLogins: "12", LastLogin: &login}
	return &r
}

func TestMarshalUnmarshalRecord(t *testing.T) {
	tests := []struct {
		name   string
		record *core.CandidateRecord
	}{
		{"empty record", func() *core.CandidateRecord { r := core.NewCandidateRecord(); return &r }()},
		{"populated record", sampleRecord()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalRecord(tt.record)
			require.NoError(t, err)

			decoded, err := UnmarshalRecord(data)
			require.NoError(t, err)
			assert.Equal(t, tt.record, decoded)
		})
	}
}

func TestUnmarshalRecord_Invalid(t *testing.T) {
	_, err := UnmarshalRecord([]byte("{not json"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestRecordProperties_OmitsAbsentValues(t *testing.T) {
	props, err := RecordProperties(sampleRecord())
	require.NoError(t, err)

	education := props["education"].([]any)
	entry := education[0].(map[string]any)
	assert.Contains(t, entry, "university_start_year")
	assert.NotContains(t, entry, "university_end_year")

	back, err := RecordFromProperties(props)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), back)
}
