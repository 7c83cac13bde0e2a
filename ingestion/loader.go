package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/normalize"
	"github.com/poiesic/talentload/storage"
)

const (
	DefaultBatchSize    = 100
	DefaultMaxAttempts  = 3
	DefaultRetryDelay   = time.Second
	DefaultFlushTimeout = time.Minute
	DefaultFlushWorkers = 1
)

// Loader reads raw records, normalizes them and writes them to a store in
// bounded batches. Records are read and normalized sequentially; flushes run
// on a small worker pool so the next batch can fill while a flush retries.
type Loader struct {
	store      storage.Writer
	collection string
	normalizer *normalize.Normalizer

	batchSize    int
	maxAttempts  int
	retryDelay   time.Duration
	flushTimeout time.Duration
	flushWorkers int
	strict       bool
	validate     bool

	logger   *slog.Logger
	metrics  *Metrics
	progress *ProgressTracker
}

// Option configures a Loader.
type Option func(*Loader) error

// WithBatchSize sets how many records are buffered before a flush.
// Default is 100.
func WithBatchSize(size int) Option {
	return func(l *Loader) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1, got %d", size)
		}
		l.batchSize = size
		return nil
	}
}

// WithMaxAttempts sets how many times a failing flush is tried.
// Default is 3.
func WithMaxAttempts(attempts int) Option {
	return func(l *Loader) error {
		if attempts < 1 {
			return ErrInvalidMaxAttempts
		}
		l.maxAttempts = attempts
		return nil
	}
}

// WithRetryDelay sets the base backoff delay between flush attempts.
// Default is 1s, doubling on each retry.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Loader) error {
		if d < 0 {
			return fmt.Errorf("retry delay must not be negative, got %s", d)
		}
		l.retryDelay = d
		return nil
	}
}

// WithFlushTimeout bounds a single flush attempt. A timed out attempt is
// retried like any other transient failure. Default is 1m.
func WithFlushTimeout(d time.Duration) Option {
	return func(l *Loader) error {
		if d <= 0 {
			return fmt.Errorf("flush timeout must be positive, got %s", d)
		}
		l.flushTimeout = d
		return nil
	}
}

// WithFlushWorkers sets how many flushes may be in flight at once.
// Default is 1.
func WithFlushWorkers(n int) Option {
	return func(l *Loader) error {
		if n < 1 {
			return fmt.Errorf("flush workers must be at least 1, got %d", n)
		}
		l.flushWorkers = n
		return nil
	}
}

// WithStrict makes the first malformed input line abort the load.
// Records already buffered are flushed before Load returns.
func WithStrict(strict bool) Option {
	return func(l *Loader) error {
		l.strict = strict
		return nil
	}
}

// WithValidation checks every normalized record against the candidate
// JSON Schema before it is buffered.
func WithValidation(validate bool) Option {
	return func(l *Loader) error {
		l.validate = validate
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithMetrics records load counters on m.
func WithMetrics(m *Metrics) Option {
	return func(l *Loader) error {
		l.metrics = m
		return nil
	}
}

// WithProgress reports flushed record counts on p.
func WithProgress(p *ProgressTracker) Option {
	return func(l *Loader) error {
		l.progress = p
		return nil
	}
}

// NewLoader creates a loader writing into collection.
func NewLoader(store storage.Writer, collection string, normalizer *normalize.Normalizer, opts ...Option) (*Loader, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if collection == "" {
		return nil, ErrCollectionRequired
	}

	l := &Loader{
		store:        store,
		collection:   collection,
		normalizer:   normalizer,
		batchSize:    DefaultBatchSize,
		maxAttempts:  DefaultMaxAttempts,
		retryDelay:   DefaultRetryDelay,
		flushTimeout: DefaultFlushTimeout,
		flushWorkers: DefaultFlushWorkers,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("component", "loader", "collection", collection)
	return l, nil
}

// pending is a normalized record waiting in the batch buffer.
type pending struct {
	line   int
	record *core.CandidateRecord
}

// LoadFile loads newline-delimited JSON records from r.
func (l *Loader) LoadFile(ctx context.Context, r io.Reader) (*LoadSummary, error) {
	return l.Load(ctx, ReadLines(r))
}

// Load consumes lines until they are exhausted, ctx is cancelled, or (in
// strict mode) a malformed line is seen. Every record that was normalized
// is flushed before Load returns, even after cancellation.
//
// The returned error is non-nil only for a strict-mode abort (wrapping
// ErrStrictAbort and the *LineError) or an input read failure. Store write
// failures are reported in the summary.
func (l *Loader) Load(ctx context.Context, lines iter.Seq2[Line, error]) (*LoadSummary, error) {
	start := time.Now()
	summary := &LoadSummary{}

	pool, err := ants.NewPool(l.flushWorkers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	// Flushes must survive an interrupt so buffered records are not lost.
	// Each attempt is still bounded by the flush timeout.
	flushCtx := context.WithoutCancel(ctx)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	submit := func(batch []pending) {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			l.flush(flushCtx, batch, summary, &mu)
		}
		// Submit blocks while every worker is busy, which bounds memory.
		if err := pool.Submit(task); err != nil {
			l.logger.Warn("flush pool unavailable, flushing inline", "err", err)
			task()
		}
	}

	if l.progress != nil {
		l.progress.Start()
		defer l.progress.Finish()
	}

	var loadErr error
	buf := make([]pending, 0, l.batchSize)
	for line, err := range lines {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		if err != nil {
			var lineErr *LineError
			if !errors.As(err, &lineErr) {
				loadErr = err
				break
			}
			mu.Lock()
			summary.Lines++
			summary.Skipped = append(summary.Skipped, lineErr)
			mu.Unlock()
			l.metrics.recordSkipped()
			l.logger.Warn("malformed input line",
				"line", lineErr.Number,
				"preview", lineErr.Preview,
				"err", lineErr.Err)
			if l.strict {
				loadErr = fmt.Errorf("%w: %w", ErrStrictAbort, lineErr)
				break
			}
			continue
		}

		rec, report := l.normalizer.NormalizeWithReport(line.Raw)
		for _, d := range report.Dropped {
			l.logger.Debug("dropped nested entry", "line", line.Number, "err", d.Err())
		}

		mu.Lock()
		summary.Lines++
		summary.Normalized++
		summary.DroppedEntries += len(report.Dropped)
		mu.Unlock()

		if l.validate {
			if err := core.ValidateCandidateRecord(&rec); err != nil {
				l.logger.Error("normalized record does not conform", "line", line.Number, "err", err)
				mu.Lock()
				summary.Attempted++
				summary.Failed++
				summary.Rejected = append(summary.Rejected, RejectedRecord{Line: line.Number, Err: err})
				mu.Unlock()
				l.metrics.recordFailed(1)
				continue
			}
		}

		buf = append(buf, pending{line: line.Number, record: &rec})
		if len(buf) >= l.batchSize {
			submit(buf)
			buf = make([]pending, 0, l.batchSize)
		}
	}
	if ctx.Err() != nil {
		summary.Interrupted = true
	}

	if len(buf) > 0 {
		submit(buf)
	}
	wg.Wait()

	summary.Duration = time.Since(start)
	l.logger.Info("load finished",
		"lines", summary.Lines,
		"skipped", len(summary.Skipped),
		"submitted", summary.Submitted,
		"failed", summary.Failed,
		"batches", summary.Batches,
		"failed_batches", len(summary.FailedBatches),
		"interrupted", summary.Interrupted,
		"duration", summary.Duration)
	return summary, loadErr
}

// flush writes one batch with retries and folds the outcome into summary.
func (l *Loader) flush(ctx context.Context, batch []pending, summary *LoadSummary, mu *sync.Mutex) {
	records := make([]*core.CandidateRecord, len(batch))
	for i, p := range batch {
		records[i] = p.record
	}
	first, last := batch[0].line, batch[len(batch)-1].line

	var results []storage.InsertResult
	attempts := 0
	start := time.Now()
	err := RetryWithBackoff(ctx, func() error {
		attempts++
		l.metrics.recordAttempt()

		attemptCtx, cancel := context.WithTimeout(ctx, l.flushTimeout)
		defer cancel()

		res, err := l.store.InsertBatch(attemptCtx, l.collection, records)
		if err != nil {
			l.logger.Warn("batch flush failed",
				"first_line", first, "last_line", last,
				"attempt", attempts, "max_attempts", l.maxAttempts, "err", err)
			return err
		}
		results = res
		return nil
	}, l.maxAttempts, l.retryDelay)
	l.metrics.observeFlush(time.Since(start), err)

	submitted, failed := 0, 0
	var rejected []RejectedRecord
	var ids []string
	if err == nil {
		for i, p := range batch {
			switch {
			case i >= len(results):
				failed++
				rejected = append(rejected, RejectedRecord{Line: p.line, Err: fmt.Errorf("%w: no result returned", core.ErrStoreWrite)})
			case results[i].Err != nil:
				failed++
				rejected = append(rejected, RejectedRecord{Line: p.line, Err: fmt.Errorf("%w: %w", core.ErrStoreWrite, results[i].Err)})
			default:
				submitted++
				ids = append(ids, results[i].ID)
			}
		}
		for _, r := range rejected {
			l.logger.Warn("record rejected by store", "line", r.Line, "err", r.Err)
		}
	} else {
		failed = len(batch)
		l.logger.Error("batch failed after retries",
			"first_line", first, "last_line", last, "size", len(batch),
			"attempts", attempts, "err", err)
	}
	l.metrics.recordSubmitted(submitted)
	l.metrics.recordFailed(failed)

	mu.Lock()
	summary.Batches++
	summary.Attempted += len(batch)
	summary.Submitted += submitted
	summary.Failed += failed
	summary.IDs = append(summary.IDs, ids...)
	summary.Rejected = append(summary.Rejected, rejected...)
	if err != nil {
		summary.FailedBatches = append(summary.FailedBatches, FailedBatch{
			FirstLine: first,
			LastLine:  last,
			Size:      len(batch),
			Attempts:  attempts,
			Err:       fmt.Errorf("%w: %w", core.ErrStoreWrite, err),
		})
	}
	mu.Unlock()

	if l.progress != nil {
		l.progress.Increment(len(batch))
	}
}
