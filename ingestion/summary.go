package ingestion

import (
	"time"
)

// FailedBatch describes a batch whose flush failed after all retries.
type FailedBatch struct {
	FirstLine int
	LastLine  int
	Size      int
	Attempts  int
	Err       error
}

// RejectedRecord is a single record the store refused, or that failed
// conformance validation before submission.
type RejectedRecord struct {
	Line int
	Err  error
}

// LoadSummary is the outcome of a load. Attempted always equals
// Submitted + Failed once Load returns.
type LoadSummary struct {
	// Lines counts non-blank input lines, decodable or not.
	Lines int
	// Skipped lists lines that could not be decoded.
	Skipped []*LineError
	// Normalized counts records produced by the normalizer.
	Normalized int
	// DroppedEntries counts malformed nested entries removed during normalization.
	DroppedEntries int

	Attempted int
	Submitted int
	Failed    int

	Batches       int
	FailedBatches []FailedBatch
	Rejected      []RejectedRecord

	// IDs are the store identifiers of submitted records.
	IDs []string

	// Interrupted is set when the context was cancelled before the input
	// was exhausted. Buffered records were still flushed.
	Interrupted bool

	Duration time.Duration
}

// HasFailures reports whether any record was not stored or any line was skipped.
func (s *LoadSummary) HasFailures() bool {
	return s.Failed > 0 || len(s.Skipped) > 0
}
