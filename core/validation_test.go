package core

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestValidateCandidateRecord(t *testing.T) {
	valid := func() *CandidateRecord {
		r := NewCandidateRecord()
		r.Name = "Ada"
		r.Education = []EducationEntry{{Degree: "BSc", UniversityStartYear: intPtr(2010)}}
		r.Experiences = []ExperienceEntry{{Title: "Engineer", StartDate: strPtr("2015-01-01T00:00:00+00:00")}}
		r.CandidateActivity.LastLogin = strPtr("2024-03-01T00:00:00+00:00")
		return &r
	}

	tests := []struct {
		name    string
		record  func() *CandidateRecord
		wantErr bool
	}{
		{
			name:    "valid record",
			record:  valid,
			wantErr: false,
		},
		{
			name: "empty record from constructor",
			record: func() *CandidateRecord {
				r := NewCandidateRecord()
				return &r
			},
			wantErr: false,
		},
		{
			name:    "nil record",
			record:  func() *CandidateRecord { return nil },
			wantErr: true,
		},
		{
			name: "null skills",
			record: func() *CandidateRecord {
				r := valid()
				r.Skills = nil
				return r
			},
			wantErr: true,
		},
		{
			name: "null experiences",
			record: func() *CandidateRecord {
				r := valid()
				r.Experiences = nil
				return r
			},
			wantErr: true,
		},
		{
			name: "zero year",
			record: func() *CandidateRecord {
				r := valid()
				r.Education[0].UniversityEndYear = intPtr(0)
				return r
			},
			wantErr: true,
		},
		{
			name: "non canonical date",
			record: func() *CandidateRecord {
				r := valid()
				r.Experiences[0].LeftDate = strPtr("2015-01-01")
				return r
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidateRecord(tt.record())

			if tt.wantErr && err == nil {
				t.Error("ValidateCandidateRecord() error = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateCandidateRecord() error = %v, want nil", err)
			}
			if err != nil && !errors.Is(err, ErrInvalidCandidateRecord) {
				t.Errorf("ValidateCandidateRecord() error = %v, want %v", err, ErrInvalidCandidateRecord)
			}
		})
	}
}

func TestValidateCandidateDocument_UnknownField(t *testing.T) {
	doc := []byte(`{"name":"","candidate_values":"","candidate_strengths":"","jobSearchenvironment":[],"skills":[],
		"education":[],"experiences":[],"locations":[],"willing_to_relocate":false,"mentra_profile_link":"",
		"candidate_activity":{"account_age_days":"","count_of_logins":""},"nickname":"x"}`)

	err := ValidateCandidateDocument(doc)
	if !errors.Is(err, ErrInvalidCandidateRecord) {
		t.Errorf("ValidateCandidateDocument() error = %v, want %v", err, ErrInvalidCandidateRecord)
	}
}
