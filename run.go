package talentload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/talentload/config"
	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/ingestion"
	"github.com/poiesic/talentload/normalize"
	"github.com/poiesic/talentload/schema"
	"github.com/poiesic/talentload/storage"
	"github.com/poiesic/talentload/verify"
)

// Outcome classifies how a run ended.
type Outcome int

const (
	// OutcomeVerified means every record was stored and the store count matches.
	OutcomeVerified Outcome = iota
	// OutcomePartial means some lines or records failed but the store count
	// matches what was submitted.
	OutcomePartial
	// OutcomeDiscrepancy means the store count differs from the submitted
	// count, or could not be checked.
	OutcomeDiscrepancy
	// OutcomeSetupFailed means the store or collection could not be prepared.
	// Nothing was loaded.
	OutcomeSetupFailed
	// OutcomeInputAborted means strict mode found a malformed line, or the
	// input could not be read.
	OutcomeInputAborted
	// OutcomeInterrupted means the run was cancelled before the input was
	// exhausted.
	OutcomeInterrupted
)

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeVerified:
		return 0
	case OutcomePartial:
		return 1
	case OutcomeDiscrepancy:
		return 2
	case OutcomeSetupFailed:
		return 3
	case OutcomeInputAborted:
		return 4
	case OutcomeInterrupted:
		return 130
	}
	return 1
}

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomePartial:
		return "completed with failures"
	case OutcomeDiscrepancy:
		return "verification discrepancy"
	case OutcomeSetupFailed:
		return "setup failed"
	case OutcomeInputAborted:
		return "input aborted"
	case OutcomeInterrupted:
		return "interrupted"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Report collects everything a run produced. Steps that did not run leave
// their field nil.
type Report struct {
	RunID      string
	Collection string
	Outcome    Outcome
	Err        error

	// Lines is the record count from the strict pre-scan, or zero.
	Lines  int
	Schema *schema.Outcome
	Load   *ingestion.LoadSummary
	Verify *verify.Result

	Started  time.Time
	Duration time.Duration
}

// Runner executes load runs against one store.
type Runner struct {
	store      storage.Store
	cfg        *config.Config
	normalizer *normalize.Normalizer
	metrics    *ingestion.Metrics
	progress   io.Writer
	logger     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) RunnerOption {
	return func(r *Runner) error {
		if n == nil {
			return errors.New("normalizer cannot be nil")
		}
		r.normalizer = n
		return nil
	}
}

// WithProgressOutput enables progress lines on w.
func WithProgressOutput(w io.Writer) RunnerOption {
	return func(r *Runner) error {
		r.progress = w
		return nil
	}
}

// WithMetrics records loader metrics on m.
func WithMetrics(m *ingestion.Metrics) RunnerOption {
	return func(r *Runner) error {
		r.metrics = m
		return nil
	}
}

// NewRunner creates a runner. cfg must already be validated.
func NewRunner(store storage.Store, cfg *config.Config, opts ...RunnerOption) (*Runner, error) {
	if store == nil {
		return nil, ingestion.ErrStoreRequired
	}
	if cfg == nil {
		return nil, errors.New("config required")
	}
	r := &Runner{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.normalizer == nil {
		n, err := normalize.New()
		if err != nil {
			return nil, err
		}
		r.normalizer = n
	}
	if r.metrics == nil && r.cfg.Load.MetricsFile != "" {
		r.metrics = ingestion.NewMetrics()
	}
	return r, nil
}

// ResetSchema drops and recreates the configured collection.
func (r *Runner) ResetSchema(ctx context.Context) (*schema.Outcome, error) {
	return schema.ResetAndCreateSchema(ctx, r.store, r.cfg.CollectionDefinition(), schema.WithLogger(r.logger))
}

// Verify reconciles expected with the configured collection.
func (r *Runner) Verify(ctx context.Context, expected int) (*verify.Result, error) {
	v, err := verify.NewVerifier(r.store,
		verify.WithSampleCap(r.cfg.Verify.SampleCap),
		verify.WithSpotCheck(r.cfg.Verify.SpotCheck),
		verify.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, r.cfg.Store.Collection, expected)
}

// Run performs a full load of input. In strict mode the whole input is
// scanned before the collection is reset, so a malformed file never
// destroys existing data.
func (r *Runner) Run(ctx context.Context, input io.ReadSeeker) *Report {
	report := &Report{
		RunID:      uuid.NewString(),
		Collection: r.cfg.Store.Collection,
		Started:    time.Now(),
	}
	base := r.logger.With("run_id", report.RunID)
	logger := base.With("component", "runner", "collection", report.Collection)
	logger.Info("starting run", "config", r.cfg.String())

	r.execute(ctx, input, report, base, logger)

	report.Duration = time.Since(report.Started)
	if r.metrics != nil && r.cfg.Load.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.cfg.Load.MetricsFile); err != nil {
			logger.Warn("failed to write metrics file", "path", r.cfg.Load.MetricsFile, "err", err)
		}
	}

	attrs := []any{"outcome", report.Outcome.String(), "duration", report.Duration}
	if report.Err != nil {
		logger.Error("run finished", append(attrs, "err", report.Err)...)
	} else {
		logger.Info("run finished", attrs...)
	}
	return report
}

func (r *Runner) execute(ctx context.Context, input io.ReadSeeker, report *Report, base, logger *slog.Logger) {
	if r.cfg.Load.Strict {
		n, err := ingestion.Scan(input)
		if err != nil {
			report.Outcome = OutcomeInputAborted
			report.Err = fmt.Errorf("pre-scan: %w", err)
			return
		}
		report.Lines = n
		if _, err := input.Seek(0, io.SeekStart); err != nil {
			report.Outcome = OutcomeInputAborted
			report.Err = fmt.Errorf("rewinding input: %w", err)
			return
		}
		logger.Info("input pre-scan passed", "records", n)
	}

	if r.cfg.Load.SkipSchema {
		exists, err := r.store.CollectionExists(ctx, r.cfg.Store.Collection)
		if err == nil && !exists {
			err = storage.ErrCollectionNotFound
		}
		if err != nil {
			report.Outcome = OutcomeSetupFailed
			report.Err = fmt.Errorf("%w: %w", core.ErrStoreSetup, err)
			return
		}
	} else {
		outcome, err := r.ResetSchema(ctx)
		if err != nil {
			report.Outcome = OutcomeSetupFailed
			report.Err = err
			return
		}
		report.Schema = outcome
	}

	loader, err := ingestion.NewLoader(r.store, r.cfg.Store.Collection, r.normalizer, r.loaderOptions(report.Lines, base)...)
	if err != nil {
		report.Outcome = OutcomeSetupFailed
		report.Err = err
		return
	}
	summary, err := loader.LoadFile(ctx, input)
	report.Load = summary
	if err != nil {
		report.Outcome = OutcomeInputAborted
		report.Err = err
		return
	}
	if summary.Interrupted {
		report.Outcome = OutcomeInterrupted
		report.Err = context.Cause(ctx)
		return
	}

	result, err := r.Verify(ctx, summary.Submitted)
	if err != nil {
		report.Outcome = OutcomeDiscrepancy
		report.Err = fmt.Errorf("verification could not complete: %w", err)
		return
	}
	report.Verify = result
	switch {
	case result.Discrepancy:
		report.Outcome = OutcomeDiscrepancy
		report.Err = result.Err()
	case summary.HasFailures():
		report.Outcome = OutcomePartial
	default:
		report.Outcome = OutcomeVerified
	}
}

func (r *Runner) loaderOptions(total int, logger *slog.Logger) []ingestion.Option {
	lc := r.cfg.Load
	opts := []ingestion.Option{
		ingestion.WithBatchSize(lc.BatchSize),
		ingestion.WithMaxAttempts(lc.MaxAttempts),
		ingestion.WithRetryDelay(lc.RetryDelay),
		ingestion.WithFlushTimeout(lc.FlushTimeout),
		ingestion.WithFlushWorkers(lc.FlushWorkers),
		ingestion.WithStrict(lc.Strict),
		ingestion.WithValidation(lc.Validate),
		ingestion.WithLogger(logger),
	}
	if r.metrics != nil {
		opts = append(opts, ingestion.WithMetrics(r.metrics))
	}
	if r.progress != nil && lc.ProgressInterval > 0 {
		opts = append(opts, ingestion.WithProgress(ingestion.NewProgressTracker(r.progress, total, lc.ProgressInterval)))
	}
	return opts
}
