package core

// CandidateRecord is the normalized, schema-conformant candidate profile that is
// submitted to the vector store. Every field always carries a value except the
// date and year fields, which use nil to mean "absent".
type CandidateRecord struct {
	Name                 string            `json:"name"`
	CandidateValues      string            `json:"candidate_values"`
	CandidateStrengths   string            `json:"candidate_strengths"`
	JobSearchEnvironment []string          `json:"jobSearchenvironment"`
	Skills               []string          `json:"skills"`
	Education            []EducationEntry  `json:"education"`
	Experiences          []ExperienceEntry `json:"experiences"`
	Locations            []LocationEntry   `json:"locations"`
	WillingToRelocate    bool              `json:"willing_to_relocate"`
	MentraProfileLink    string            `json:"mentra_profile_link"`
	CandidateActivity    ActivityRecord    `json:"candidate_activity"`
}

// EducationEntry is one element of CandidateRecord.Education.
type EducationEntry struct {
	Degree              string `json:"degree"`
	UniversityStartYear *int   `json:"university_start_year,omitempty"`
	UniversityEndYear   *int   `json:"university_end_year,omitempty"`
	EducationArea       string `json:"education_area"`
	SchoolName          string `json:"school_name"`
}

// ExperienceEntry is one element of CandidateRecord.Experiences.
// StartDate and LeftDate hold canonical timestamps when present.
type ExperienceEntry struct {
	Title         string  `json:"title"`
	Employer      string  `json:"employer"`
	Description   string  `json:"description"`
	IsCurrent     bool    `json:"is_current"`
	StartDate     *string `json:"start_date,omitempty"`
	LeftDate      *string `json:"left_date,omitempty"`
	DurationYears string  `json:"duration_years"`
}

// LocationEntry is one element of CandidateRecord.Locations.
type LocationEntry struct {
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
}

// ActivityRecord summarizes a candidate's platform activity.
// Counters are text on purpose: the target schema declares them as text.
type ActivityRecord struct {
	AccountAgeDays string  `json:"account_age_days"`
	CountOfLogins  string  `json:"count_of_logins"`
	LastLogin      *string `json:"last_login,omitempty"`
}

// NewCandidateRecord returns a record with every sequence initialized to empty.
func NewCandidateRecord() CandidateRecord {
	return CandidateRecord{
		JobSearchEnvironment: []string{},
		Skills:               []string{},
		Education:            []EducationEntry{},
		Experiences:          []ExperienceEntry{},
		Locations:            []LocationEntry{},
	}
}

// StoredRecord is a record read back from a store together with its identifier.
type StoredRecord struct {
	ID     string
	Record *CandidateRecord
}

// SearchResult is a stored record matched by a semantic query.
// Score is a similarity (higher is closer) when the store reports one.
type SearchResult struct {
	ID     string
	Record *CandidateRecord
	Score  float32
}
