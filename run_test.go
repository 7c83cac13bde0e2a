package talentload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentload/config"
	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/ingestion"
	"github.com/poiesic/talentload/storage"
	"github.com/poiesic/talentload/storage/badger"
)

const mixedInput = `{"name": "Ada Lovelace", "skills": ["math", "engines"], "education": [{"degree": "BSc", "university_start_year": 1832, "university_end_year": "1835"}], "experiences": [{"title": "Analyst", "is_current": "true", "start_date": "1842-09"}], "locations": [{"country": "UK"}], "willing_to_relocate": 1, "candidate_activity": {"count_of_logins": 7, "last_login": "2024-02-29"}}
{"name": "Grace Hopper", "education": [{"degree": "PhD", "university_start_year": 0}]}
{"name": "broken"
`

const cleanInput = `{"name": "Ada Lovelace"}
{"name": "Grace Hopper"}
{"name": "Katherine Johnson"}
`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendBadger
	cfg.Store.InMemory = true
	cfg.Load.RetryDelay = time.Millisecond
	cfg.Load.BatchSize = 2
	cfg.Verify.SpotCheck = 2
	return cfg
}

func newTestRunner(t *testing.T, cfg *config.Config) (*Runner, *badger.Store) {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	r, err := NewRunner(store, cfg)
	require.NoError(t, err)
	return r, store
}

func TestRun_Clean(t *testing.T) {
	r, store := newTestRunner(t, testConfig())
	ctx := context.Background()

	report := r.Run(ctx, strings.NewReader(cleanInput))
	require.NoError(t, report.Err)
	assert.Equal(t, OutcomeVerified, report.Outcome)
	assert.Equal(t, 0, report.Outcome.ExitCode())
	assert.False(t, report.Schema.Dropped)
	assert.Equal(t, 3, report.Load.Submitted)
	assert.Equal(t, 3, report.Verify.Actual)
	assert.NotEmpty(t, report.RunID)

	// A rerun drops the previous data instead of duplicating it.
	report = r.Run(ctx, strings.NewReader(cleanInput))
	require.NoError(t, report.Err)
	assert.True(t, report.Schema.Dropped)

	n, err := store.Count(ctx, storage.DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRun_LenientSkipsMalformedLine(t *testing.T) {
	r, store := newTestRunner(t, testConfig())
	ctx := context.Background()

	report := r.Run(ctx, strings.NewReader(mixedInput))
	require.NoError(t, report.Err)
	assert.Equal(t, OutcomePartial, report.Outcome)
	assert.Equal(t, 1, report.Outcome.ExitCode())
	assert.Equal(t, 2, report.Load.Submitted)
	require.Len(t, report.Load.Skipped, 1)
	assert.Equal(t, 3, report.Load.Skipped[0].Number)
	assert.False(t, report.Verify.Discrepancy)

	found, err := store.FindByField(ctx, storage.DefaultCollection, "name", "Grace Hopper", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Len(t, found[0].Record.Education, 1)
	assert.Nil(t, found[0].Record.Education[0].UniversityStartYear)

	found, err = store.FindByField(ctx, storage.DefaultCollection, "name", "Ada Lovelace", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	ada := found[0].Record
	assert.Equal(t, 1835, *ada.Education[0].UniversityEndYear)
	assert.True(t, ada.Experiences[0].IsCurrent)
	assert.Nil(t, ada.Experiences[0].StartDate, "dates before 1900 are absent")
	assert.Equal(t, "7", ada.CandidateActivity.CountOfLogins)
	assert.Equal(t, "2024-02-29T00:00:00+00:00", *ada.CandidateActivity.LastLogin)
	assert.True(t, ada.WillingToRelocate)
}

func TestRun_StrictAbortsBeforeReset(t *testing.T) {
	cfg := testConfig()
	cfg.Load.Strict = true
	r, store := newTestRunner(t, cfg)
	ctx := context.Background()

	first := r.Run(ctx, strings.NewReader(cleanInput))
	require.NoError(t, first.Err)

	report := r.Run(ctx, strings.NewReader(mixedInput))
	assert.Equal(t, OutcomeInputAborted, report.Outcome)
	assert.Equal(t, 4, report.Outcome.ExitCode())
	assert.ErrorIs(t, report.Err, core.ErrMalformedLine)

	var lineErr *ingestion.LineError
	require.True(t, errors.As(report.Err, &lineErr))
	assert.Equal(t, 3, lineErr.Number)
	assert.Nil(t, report.Schema)
	assert.Nil(t, report.Load)

	n, err := store.Count(ctx, storage.DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "existing data survives a rejected input file")
}

func TestRun_SkipSchemaRequiresCollection(t *testing.T) {
	cfg := testConfig()
	cfg.Load.SkipSchema = true
	r, _ := newTestRunner(t, cfg)

	report := r.Run(context.Background(), strings.NewReader(cleanInput))
	assert.Equal(t, OutcomeSetupFailed, report.Outcome)
	assert.Equal(t, 3, report.Outcome.ExitCode())
	assert.ErrorIs(t, report.Err, core.ErrStoreSetup)
	assert.ErrorIs(t, report.Err, storage.ErrCollectionNotFound)
}

// lossyStore acknowledges every record but never writes the last one of
// each batch.
type lossyStore struct {
	*badger.Store
}

func (s lossyStore) InsertBatch(ctx context.Context, collection string, records []*core.CandidateRecord) ([]storage.InsertResult, error) {
	res, err := s.Store.InsertBatch(ctx, collection, records[:len(records)-1])
	if err != nil {
		return nil, err
	}
	return append(res, storage.InsertResult{ID: "phantom"}), nil
}

func TestRun_Discrepancy(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	cfg := testConfig()
	cfg.Load.BatchSize = 100
	r, err := NewRunner(lossyStore{store}, cfg)
	require.NoError(t, err)

	report := r.Run(context.Background(), strings.NewReader(cleanInput))
	assert.Equal(t, OutcomeDiscrepancy, report.Outcome)
	assert.Equal(t, 2, report.Outcome.ExitCode())
	assert.ErrorIs(t, report.Err, core.ErrVerificationMismatch)
	assert.Equal(t, 3, report.Verify.Expected)
	assert.Equal(t, 2, report.Verify.Actual)
	assert.Equal(t, 1, report.Verify.Missing)
}

// cancellingReader cancels the run on its first read.
type cancellingReader struct {
	io.ReadSeeker
	cancel context.CancelFunc
}

func (c cancellingReader) Read(p []byte) (int, error) {
	c.cancel()
	return c.ReadSeeker.Read(p)
}

func TestRun_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r, _ := newTestRunner(t, testConfig())

	report := r.Run(ctx, cancellingReader{ReadSeeker: strings.NewReader(cleanInput), cancel: cancel})
	assert.Equal(t, OutcomeInterrupted, report.Outcome)
	assert.Equal(t, 130, report.Outcome.ExitCode())
	assert.ErrorIs(t, report.Err, context.Canceled)
	assert.True(t, report.Load.Interrupted)
	assert.Nil(t, report.Verify)
}

func TestRun_MetricsFile(t *testing.T) {
	cfg := testConfig()
	cfg.Load.MetricsFile = t.TempDir() + "/talentload.prom"
	r, _ := newTestRunner(t, cfg)

	report := r.Run(context.Background(), strings.NewReader(cleanInput))
	require.NoError(t, report.Err)
	assert.FileExists(t, cfg.Load.MetricsFile)
}

func TestRun_Progress(t *testing.T) {
	cfg := testConfig()
	cfg.Load.Strict = true
	cfg.Load.ProgressInterval = 1

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	var progress bytes.Buffer
	r, err := NewRunner(store, cfg, WithProgressOutput(&progress))
	require.NoError(t, err)

	report := r.Run(context.Background(), strings.NewReader(cleanInput))
	require.NoError(t, report.Err)
	assert.Equal(t, 3, report.Lines)
	assert.Contains(t, progress.String(), "3/3")
}

func TestReport_WriteSummary(t *testing.T) {
	r, _ := newTestRunner(t, testConfig())
	report := r.Run(context.Background(), strings.NewReader(mixedInput))

	var buf bytes.Buffer
	require.NoError(t, report.WriteSummary(&buf))
	out := buf.String()

	assert.Contains(t, out, "Outcome                      completed with failures")
	assert.Contains(t, out, "Records submitted            2")
	assert.Contains(t, out, "skipped line 3:")
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome Outcome
		code    int
		name    string
	}{
		{OutcomeVerified, 0, "verified"},
		{OutcomePartial, 1, "completed with failures"},
		{OutcomeDiscrepancy, 2, "verification discrepancy"},
		{OutcomeSetupFailed, 3, "setup failed"},
		{OutcomeInputAborted, 4, "input aborted"},
		{OutcomeInterrupted, 130, "interrupted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.outcome.ExitCode())
			assert.Equal(t, tt.name, tt.outcome.String())
		})
	}
}

func TestNewRunner_Validation(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = NewRunner(nil, config.Default())
	assert.ErrorIs(t, err, ingestion.ErrStoreRequired)

	_, err = NewRunner(store, nil)
	assert.Error(t, err)

	_, err = NewRunner(store, config.Default(), WithLogger(nil))
	assert.Error(t, err)
}
