package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/storage"
)

const (
	// DefaultSampleCap bounds how many identifiers are paged when the store
	// cannot aggregate.
	DefaultSampleCap = 10000

	// DefaultPageSize is the identifier page size used by the fallback count.
	DefaultPageSize = 500
)

// Method names how the actual count was obtained.
type Method string

const (
	MethodAggregate Method = "aggregate"
	MethodIDScan    Method = "id-scan"
)

// Store is the subset of storage.Store the verifier reads from.
type Store interface {
	storage.Counter
	storage.Reader
}

// NonConforming is a sampled record that failed schema validation.
type NonConforming struct {
	ID  string
	Err error
}

// Result is the outcome of a reconciliation.
type Result struct {
	Expected int
	Actual   int
	Missing  int
	Extra    int

	// Discrepancy is set when Actual differs from Expected. A Capped scan
	// sets it only when it has already seen more than Expected.
	Discrepancy bool
	Method      Method
	// Capped is set when the identifier scan stopped at the cap, making
	// Actual a lower bound.
	Capped bool

	Sampled       int
	NonConforming []NonConforming
}

// Err returns an error wrapping core.ErrVerificationMismatch when the result
// carries a discrepancy, and nil otherwise.
func (r *Result) Err() error {
	if !r.Discrepancy {
		return nil
	}
	return fmt.Errorf("%w: submitted %d, store reports %d (missing %d, extra %d)",
		core.ErrVerificationMismatch, r.Expected, r.Actual, r.Missing, r.Extra)
}

// Verifier compares submitted counts with the store.
type Verifier struct {
	store     Store
	sampleCap int
	pageSize  int
	spotCheck int
	logger    *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier) error

// WithSampleCap sets the identifier cap for stores without aggregation.
func WithSampleCap(n int) Option {
	return func(v *Verifier) error {
		if n < 1 {
			return fmt.Errorf("sample cap must be at least 1, got %d", n)
		}
		v.sampleCap = n
		return nil
	}
}

// WithPageSize sets the identifier page size for the fallback count.
func WithPageSize(n int) Option {
	return func(v *Verifier) error {
		if n < 1 {
			return fmt.Errorf("page size must be at least 1, got %d", n)
		}
		v.pageSize = n
		return nil
	}
}

// WithSpotCheck validates up to n stored records against the candidate
// schema alongside the count. Zero disables the spot check.
func WithSpotCheck(n int) Option {
	return func(v *Verifier) error {
		if n < 0 {
			return fmt.Errorf("spot check size must not be negative, got %d", n)
		}
		v.spotCheck = n
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) error {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
		return nil
	}
}

// NewVerifier creates a verifier reading from store.
func NewVerifier(store Store, opts ...Option) (*Verifier, error) {
	if store == nil {
		return nil, errors.New("store required")
	}
	v := &Verifier{
		store:     store,
		sampleCap: DefaultSampleCap,
		pageSize:  DefaultPageSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	v.logger = v.logger.With("component", "verifier")
	return v, nil
}

// Verify counts the records in collection and compares the count with
// expected. The returned error covers failures to read from the store; a
// count mismatch is reported through Result.Discrepancy and Result.Err.
func (v *Verifier) Verify(ctx context.Context, collection string, expected int) (*Result, error) {
	result := &Result{Expected: expected}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		actual, method, capped, err := v.count(gCtx, collection)
		if err != nil {
			return err
		}
		result.Actual = actual
		result.Method = method
		result.Capped = capped
		return nil
	})
	if v.spotCheck > 0 {
		g.Go(func() error {
			sampled, bad, err := v.sample(gCtx, collection)
			if err != nil {
				return err
			}
			result.Sampled = sampled
			result.NonConforming = bad
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch {
	case !result.Capped:
		result.Missing = max(expected-result.Actual, 0)
		result.Extra = max(result.Actual-expected, 0)
		result.Discrepancy = result.Actual != expected
	case result.Actual > expected:
		// The scan stopped early, so Extra is a lower bound.
		result.Extra = result.Actual - expected
		result.Discrepancy = true
	}
	// A capped scan at or below expected cannot prove records missing.

	logger := v.logger.With(
		"collection", collection,
		"expected", expected,
		"actual", result.Actual,
		"method", result.Method)
	switch {
	case result.Discrepancy:
		logger.Warn("store count does not match submitted count",
			"missing", result.Missing, "extra", result.Extra)
	case result.Capped:
		logger.Warn("identifier scan hit cap, count is a lower bound", "cap", v.sampleCap)
	default:
		logger.Info("store count matches submitted count")
	}
	for _, nc := range result.NonConforming {
		logger.Warn("stored record does not conform to schema", "id", nc.ID, "err", nc.Err)
	}
	return result, nil
}

func (v *Verifier) count(ctx context.Context, collection string) (int, Method, bool, error) {
	n, err := v.store.Count(ctx, collection)
	if err == nil {
		return n, MethodAggregate, false, nil
	}
	if !errors.Is(err, storage.ErrCountUnsupported) {
		return 0, "", false, fmt.Errorf("counting %s: %w", collection, err)
	}

	v.logger.Debug("aggregate count unavailable, paging identifiers", "collection", collection)
	total := 0
	cursor := ""
	for total < v.sampleCap {
		limit := min(v.pageSize, v.sampleCap-total)
		ids, err := v.store.ListIDs(ctx, collection, cursor, limit)
		if err != nil {
			return 0, "", false, fmt.Errorf("listing %s ids after %q: %w", collection, cursor, err)
		}
		total += len(ids)
		if len(ids) < limit {
			return total, MethodIDScan, false, nil
		}
		cursor = ids[len(ids)-1]
	}
	return total, MethodIDScan, true, nil
}

func (v *Verifier) sample(ctx context.Context, collection string) (int, []NonConforming, error) {
	records, err := v.store.Sample(ctx, collection, v.spotCheck)
	if err != nil {
		return 0, nil, fmt.Errorf("sampling %s: %w", collection, err)
	}
	var bad []NonConforming
	for _, r := range records {
		if err := core.ValidateCandidateRecord(r.Record); err != nil {
			bad = append(bad, NonConforming{ID: r.ID, Err: err})
		}
	}
	return len(records), bad, nil
}
