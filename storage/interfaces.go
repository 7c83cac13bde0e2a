package storage

import (
	"context"

	"github.com/poiesic/talentload/core"
)

// SchemaManager manages named collections.
type SchemaManager interface {
	// CollectionExists reports whether a collection with the given name exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// DeleteCollection removes a collection and all of its records.
	// Returns ErrCollectionNotFound if the collection does not exist.
	DeleteCollection(ctx context.Context, name string) error

	// CreateCollection creates a collection from a definition.
	// Creating a collection that already exists is an error.
	CreateCollection(ctx context.Context, def *CollectionDefinition) error
}

// InsertResult is the outcome for one record of a batch insert.
// Err is set when the store rejected that record.
type InsertResult struct {
	ID  string
	Err error
}

// Writer inserts records into a collection.
type Writer interface {
	// Insert stores a single record and returns its assigned identifier.
	Insert(ctx context.Context, collection string, record *core.CandidateRecord) (string, error)

	// InsertBatch stores records in a single round trip. A non-nil error means
	// the round trip itself failed and no per-record results are available.
	// Otherwise the results are positionally aligned with records.
	InsertBatch(ctx context.Context, collection string, records []*core.CandidateRecord) ([]InsertResult, error)
}

// Counter reports collection sizes.
type Counter interface {
	// Count returns the number of records in a collection.
	// Returns ErrCountUnsupported when the store cannot aggregate.
	Count(ctx context.Context, collection string) (int, error)
}

// Reader reads records back from a collection.
type Reader interface {
	// ListIDs returns up to limit record identifiers ordered by identifier,
	// starting after the given cursor. An empty cursor starts at the beginning.
	ListIDs(ctx context.Context, collection string, after string, limit int) ([]string, error)

	// Sample returns up to limit stored records.
	Sample(ctx context.Context, collection string, limit int) ([]*core.StoredRecord, error)

	// FindByField returns up to limit records whose top-level text field equals value.
	FindByField(ctx context.Context, collection, field, value string, limit int) ([]*core.StoredRecord, error)
}

// Searcher runs semantic queries against vectorized fields.
type Searcher interface {
	// Search returns up to limit records closest to the query text, best first.
	// Returns ErrSearchUnsupported when the store has no vectorizer.
	Search(ctx context.Context, collection, query string, limit int) ([]*core.SearchResult, error)
}

// Store combines every store capability used by a run.
// Implementations must be safe for concurrent use.
type Store interface {
	SchemaManager
	Writer
	Counter
	Reader
	Searcher

	// Close releases the store's resources.
	Close() error
}
