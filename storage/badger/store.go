package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/poiesic/talentload/ai"
	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/storage"
)

// Store implements storage.Store on top of BadgerDB. Records are kept as
// JSON. When an embedder is configured, the text fields selected by the
// collection's vectorizer policy are embedded on insert and Search is enabled.
type Store struct {
	backend  *Backend
	embedder ai.Embedder
	logger   *slog.Logger
	validate bool
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithEmbedder enables local vectorization and semantic search.
func WithEmbedder(e ai.Embedder) Option {
	return func(s *Store) error {
		s.embedder = e
		return nil
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithSchemaEnforcement makes the store reject records that do not conform
// to the candidate JSON Schema, the way a remote store rejects objects whose
// properties do not match the collection's types.
func WithSchemaEnforcement(enabled bool) Option {
	return func(s *Store) error {
		s.validate = enabled
		return nil
	}
}

// NewStore wraps an open backend. The store takes ownership of the backend
// and closes it on Close.
func NewStore(backend *Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend:  backend,
		logger:   slog.Default(),
		validate: true,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "badger-store")
	return s, nil
}

// Open opens (or creates) a store in the directory at path.
func Open(path string, opts ...Option) (*Store, error) {
	backend, err := OpenBackend(path, false, nil)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) check(ctx context.Context) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return ctx.Err()
}

// CollectionExists reports whether the collection has been created.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}
	_, err := s.definition(name)
	if errors.Is(err, storage.ErrCollectionNotFound) {
		return false, nil
	}
	return err == nil, err
}

// DeleteCollection removes the collection definition and all its records.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCollectionKey(name)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, name)
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}
	return s.backend.DropPrefix(makeObjectPrefix(name), makeVectorPrefix(name))
}

// CreateCollection stores a new collection definition.
func (s *Store) CreateCollection(ctx context.Context, def *storage.CollectionDefinition) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if strings.Contains(def.Name, ":") {
		return fmt.Errorf("%w: collection name %q contains ':'", storage.ErrRejected, def.Name)
	}

	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCollectionKey(def.Name)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("%w: %s", storage.ErrCollectionExists, def.Name)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(key, data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (s *Store) definition(name string) (*storage.CollectionDefinition, error) {
	var def storage.CollectionDefinition
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCollectionKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, name)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &def)
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// Insert stores a single record.
func (s *Store) Insert(ctx context.Context, collection string, record *core.CandidateRecord) (string, error) {
	results, err := s.InsertBatch(ctx, collection, []*core.CandidateRecord{record})
	if err != nil {
		return "", err
	}
	return results[0].ID, results[0].Err
}

// InsertBatch stores records in a single transaction. Records that fail
// schema enforcement are rejected individually; the rest are written.
func (s *Store) InsertBatch(ctx context.Context, collection string, records []*core.CandidateRecord) ([]storage.InsertResult, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	def, err := s.definition(collection)
	if err != nil {
		return nil, err
	}

	results := make([]storage.InsertResult, len(records))
	values := make([][]byte, len(records))
	for i, record := range records {
		if s.validate {
			if err := core.ValidateCandidateRecord(record); err != nil {
				results[i].Err = fmt.Errorf("%w: %w", storage.ErrRejected, err)
				continue
			}
		}
		data, err := storage.MarshalRecord(record)
		if err != nil {
			results[i].Err = fmt.Errorf("%w: %w", storage.ErrRejected, err)
			continue
		}
		results[i].ID = uuid.NewString()
		values[i] = data
	}

	vectors, err := s.embed(ctx, def, records, results)
	if err != nil {
		return nil, err
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		for i := range records {
			if results[i].Err != nil {
				continue
			}
			if err := tx.Set(makeObjectKey(collection, results[i].ID), values[i]); err != nil {
				return err
			}
			if vectors[i] != nil {
				if err := tx.Set(makeVectorKey(collection, results[i].ID), encodeVector(vectors[i])); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return results, nil
}

// embed computes normalized vectors for the accepted records. Records with
// no vectorizable text get no vector.
func (s *Store) embed(ctx context.Context, def *storage.CollectionDefinition, records []*core.CandidateRecord, results []storage.InsertResult) ([][]float32, error) {
	vectors := make([][]float32, len(records))
	if s.embedder == nil || def.Vectorizer.Module == "" || def.Vectorizer.Module == "none" {
		return vectors, nil
	}

	var texts []string
	var positions []int
	for i, record := range records {
		if results[i].Err != nil {
			continue
		}
		text, err := vectorText(def, record)
		if err != nil {
			return nil, err
		}
		if text == "" {
			continue
		}
		texts = append(texts, text)
		positions = append(positions, i)
	}
	if len(texts) == 0 {
		return vectors, nil
	}

	embeddings, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding batch: %w", storage.ErrUnavailable, err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", storage.ErrUnavailable, len(embeddings), len(texts))
	}
	for j, pos := range positions {
		vectors[pos] = normalizeVector(embeddings[j])
	}
	return vectors, nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	if _, err := s.definition(collection); err != nil {
		return 0, err
	}

	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeObjectPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ListIDs returns record ids in key order after the cursor.
func (s *Store) ListIDs(ctx context.Context, collection string, after string, limit int) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if _, err := s.definition(collection); err != nil {
		return nil, err
	}

	var ids []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeObjectPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := opts.Prefix
		if after != "" {
			start = makeObjectKey(collection, after)
		}
		for iter.Seek(start); iter.Valid() && len(ids) < limit; iter.Next() {
			id := idFromKey(iter.Item().Key())
			if id == after {
				continue
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	return ids, err
}

// Sample returns the first limit records in key order.
func (s *Store) Sample(ctx context.Context, collection string, limit int) ([]*core.StoredRecord, error) {
	return s.scan(ctx, collection, limit, func(*core.StoredRecord) (bool, error) { return true, nil })
}

// FindByField scans the collection for records whose top-level text
// property equals value.
func (s *Store) FindByField(ctx context.Context, collection, field, value string, limit int) ([]*core.StoredRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	def, err := s.definition(collection)
	if err != nil {
		return nil, err
	}
	p, ok := def.Property(field)
	if !ok || p.DataType != storage.DataTypeText {
		return nil, fmt.Errorf("%w: %q is not a text property of %s", storage.ErrRejected, field, collection)
	}

	return s.scan(ctx, collection, limit, func(rec *core.StoredRecord) (bool, error) {
		props, err := storage.RecordProperties(rec.Record)
		if err != nil {
			return false, err
		}
		got, _ := props[field].(string)
		return got == value, nil
	})
}

func (s *Store) scan(ctx context.Context, collection string, limit int, match func(*core.StoredRecord) (bool, error)) ([]*core.StoredRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if _, err := s.definition(collection); err != nil {
		return nil, err
	}

	var out []*core.StoredRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeObjectPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(out) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			var record *core.CandidateRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			stored := &core.StoredRecord{ID: idFromKey(item.Key()), Record: record}
			ok, err := match(stored)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, stored)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Search ranks records by cosine similarity between the query embedding and
// each stored record embedding.
func (s *Store) Search(ctx context.Context, collection, query string, limit int) ([]*core.SearchResult, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	def, err := s.definition(collection)
	if err != nil {
		return nil, err
	}
	if s.embedder == nil || def.Vectorizer.Module == "" || def.Vectorizer.Module == "none" {
		return nil, storage.ErrSearchUnsupported
	}

	queryVec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", storage.ErrUnavailable, err)
	}
	queryVec = normalizeVector(queryVec)

	var results []*core.SearchResult
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVectorPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var vec []float32
			err := item.Value(func(val []byte) error {
				var err error
				vec, err = decodeVector(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, &core.SearchResult{
				ID:    idFromKey(item.Key()),
				Score: dotProduct(queryVec, vec),
			})
		}

		// Sort by similarity descending
		slices.SortFunc(results, func(a, b *core.SearchResult) int {
			switch {
			case a.Score > b.Score:
				return -1
			case a.Score < b.Score:
				return 1
			default:
				return strings.Compare(a.ID, b.ID)
			}
		})
		if len(results) > limit {
			results = results[:limit]
		}

		for _, r := range results {
			item, err := tx.Get(makeObjectKey(collection, r.ID))
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				var err error
				r.Record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}
