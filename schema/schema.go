package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/storage"
)

// Outcome describes what ResetAndCreateSchema did.
type Outcome struct {
	// Dropped is true when an existing collection was deleted first.
	Dropped bool
}

type options struct {
	logger *slog.Logger
}

// Option configures ResetAndCreateSchema.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// ResetAndCreateSchema drops the collection named by def if it exists and
// creates it fresh. This destroys all records in the collection.
//
// A missing collection is not an error. Any other delete failure, a create
// failure, or a collection that is still absent after creation is returned
// wrapped in core.ErrStoreSetup; no records should be loaded in that case.
func ResetAndCreateSchema(ctx context.Context, store storage.SchemaManager, def *storage.CollectionDefinition, opts ...Option) (*Outcome, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if def == nil {
		return nil, fmt.Errorf("%w: collection definition is nil", core.ErrStoreSetup)
	}
	logger := o.logger.With("component", "schema", "collection", def.Name)

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid definition: %w", core.ErrStoreSetup, err)
	}

	outcome := &Outcome{}
	err := store.DeleteCollection(ctx, def.Name)
	switch {
	case err == nil:
		outcome.Dropped = true
		logger.Info("deleted existing collection")
	case errors.Is(err, storage.ErrCollectionNotFound):
		logger.Info("no existing collection to delete")
	default:
		return nil, fmt.Errorf("%w: deleting collection %s: %w", core.ErrStoreSetup, def.Name, err)
	}

	if err := store.CreateCollection(ctx, def); err != nil {
		return nil, fmt.Errorf("%w: creating collection %s: %w", core.ErrStoreSetup, def.Name, err)
	}

	exists, err := store.CollectionExists(ctx, def.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: confirming collection %s: %w", core.ErrStoreSetup, def.Name, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: collection %s missing after create", core.ErrStoreSetup, def.Name)
	}

	logger.Info("created collection",
		"properties", len(def.Properties),
		"vectorizer", def.Vectorizer.Module,
		"vectorized_fields", def.Vectorizer.Fields)
	return outcome, nil
}
