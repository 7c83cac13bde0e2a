package normalize

import (
	"fmt"
	"time"

	"github.com/poiesic/talentload/core"
)

// Normalizer converts loosely typed source objects into core.CandidateRecord.
// It is stateless apart from the reference year and is safe for concurrent use.
type Normalizer struct {
	referenceYear int
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithReferenceYear pins the year used for the date validity window and for
// two-digit year expansion. Defaults to the current UTC year.
func WithReferenceYear(year int) Option {
	return func(n *Normalizer) error {
		if year < MinYear {
			return fmt.Errorf("reference year %d is before %d", year, MinYear)
		}
		n.referenceYear = year
		return nil
	}
}

// New creates a Normalizer.
func New(opts ...Option) (*Normalizer, error) {
	n := &Normalizer{referenceYear: time.Now().UTC().Year()}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// ReferenceYear returns the configured reference year.
func (n *Normalizer) ReferenceYear() int {
	return n.referenceYear
}

// DroppedEntry describes a nested entry that could not be normalized.
// Index is -1 when the whole field had the wrong shape.
type DroppedEntry struct {
	Field  string
	Index  int
	Reason string
}

// Err returns the drop as an error wrapping core.ErrMalformedEntry.
func (d DroppedEntry) Err() error {
	if d.Index < 0 {
		return fmt.Errorf("%w: %s: %s", core.ErrMalformedEntry, d.Field, d.Reason)
	}
	return fmt.Errorf("%w: %s[%d]: %s", core.ErrMalformedEntry, d.Field, d.Index, d.Reason)
}

// Report lists what was discarded while normalizing one record.
type Report struct {
	Dropped []DroppedEntry
}

func (r *Report) drop(field string, index int, reason string) {
	r.Dropped = append(r.Dropped, DroppedEntry{Field: field, Index: index, Reason: reason})
}

// Normalize maps raw onto the target shape. It never fails: missing or
// unusable values resolve to the field's default, and unknown keys are ignored.
func (n *Normalizer) Normalize(raw map[string]any) core.CandidateRecord {
	rec, _ := n.NormalizeWithReport(raw)
	return rec
}

// NormalizeWithReport is Normalize plus a report of dropped nested entries.
func (n *Normalizer) NormalizeWithReport(raw map[string]any) (core.CandidateRecord, Report) {
	var report Report
	s := &state{referenceYear: n.referenceYear, report: &report}
	rec := applyFields(s, raw, candidateFields)
	return rec, report
}
