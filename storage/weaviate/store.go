package weaviate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/storage"
)

// Config holds connection settings for a Weaviate instance.
type Config struct {
	// URL is the cluster endpoint, e.g. "https://my-cluster.weaviate.network".
	URL string

	// APIKey authenticates against the cluster. Empty disables auth.
	APIKey string

	// VectorizerAPIKey is forwarded as X-OpenAI-Api-Key so the cluster's
	// text2vec-openai module can call the embedding provider.
	VectorizerAPIKey string

	// ConnectTimeout bounds the readiness check performed by Connect.
	ConnectTimeout time.Duration

	// ReadTimeout bounds every HTTP request made by the client.
	ReadTimeout time.Duration
}

// Store implements storage.Store against a Weaviate cluster.
type Store struct {
	client *weaviate.Client
	logger *slog.Logger
	closed atomic.Bool
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

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

// Connect creates a client and waits for the cluster to report ready.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	scheme, host, err := splitURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	wcfg := weaviate.Config{
		Host:             host,
		Scheme:           scheme,
		Headers:          map[string]string{},
		ConnectionClient: &http.Client{Timeout: cfg.ReadTimeout},
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	if cfg.VectorizerAPIKey != "" {
		wcfg.Headers["X-OpenAI-Api-Key"] = cfg.VectorizerAPIKey
	}

	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}

	s := &Store{client: client, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "weaviate-store", "host", host)

	readyCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		readyCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	ready, err := client.Misc().ReadyChecker().Do(readyCtx)
	if err != nil {
		return nil, classify("ready check", err)
	}
	if !ready {
		return nil, fmt.Errorf("%w: %s is not ready", storage.ErrUnavailable, host)
	}
	s.logger.Info("connected")
	return s, nil
}

// Close marks the store closed. The REST client holds no resources of its own.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}
	return ctx.Err()
}

// CollectionExists reports whether the class exists.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(name).Do(ctx)
	if err != nil {
		return false, classify("checking class", err)
	}
	return exists, nil
}

// DeleteCollection deletes the class and its objects.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, name)
	}
	if err := s.client.Schema().ClassDeleter().WithClassName(name).Do(ctx); err != nil {
		return classify("deleting class", err)
	}
	return nil
}

// CreateCollection creates the class described by def.
func (s *Store) CreateCollection(ctx context.Context, def *storage.CollectionDefinition) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if err := s.client.Schema().ClassCreator().WithClass(toClass(def)).Do(ctx); err != nil {
		return classify("creating class", err)
	}
	return nil
}

// Insert creates a single object.
func (s *Store) Insert(ctx context.Context, collection string, record *core.CandidateRecord) (string, error) {
	if err := s.check(ctx); err != nil {
		return "", err
	}
	props, err := storage.RecordProperties(record)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	w, err := s.client.Data().Creator().
		WithClassName(collection).
		WithID(id).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return "", classify("inserting object", err)
	}
	if w != nil && w.Object != nil && w.Object.ID != "" {
		id = w.Object.ID.String()
	}
	return id, nil
}

// InsertBatch sends all records in one batch request. Identifiers are
// assigned client side so per-object results can be matched back.
func (s *Store) InsertBatch(ctx context.Context, collection string, records []*core.CandidateRecord) ([]storage.InsertResult, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	results := make([]storage.InsertResult, len(records))
	objects := make([]*models.Object, 0, len(records))
	index := make(map[strfmt.UUID]int, len(records))
	for i, record := range records {
		props, err := storage.RecordProperties(record)
		if err != nil {
			results[i].Err = fmt.Errorf("%w: %w", storage.ErrRejected, err)
			continue
		}
		id := strfmt.UUID(uuid.NewString())
		index[id] = i
		results[i].ID = id.String()
		objects = append(objects, &models.Object{
			Class:      collection,
			ID:         id,
			Properties: props,
		})
	}
	if len(objects) == 0 {
		return results, nil
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return nil, classify("batch insert", err)
	}

	for _, r := range resp {
		i, ok := index[r.ID]
		if !ok {
			continue
		}
		delete(index, r.ID)
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			msg := ""
			if r.Result.Errors.Error[0] != nil {
				msg = r.Result.Errors.Error[0].Message
			}
			results[i].Err = fmt.Errorf("%w: %s", storage.ErrRejected, msg)
			results[i].ID = ""
		}
	}

	// Objects the response did not mention were never confirmed written.
	if len(index) > 0 {
		s.logger.Warn("batch response did not cover every object", "sent", len(objects), "unanswered", len(index))
	}
	for id, i := range index {
		results[i].Err = fmt.Errorf("%w: no result for object %s in batch response", storage.ErrUnavailable, id)
		results[i].ID = ""
	}
	return results, nil
}

// Count aggregates meta.count over the class.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(collection).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, classify("aggregate count", err)
	}
	return aggregateCount(resp, collection)
}

// ListIDs pages object ids with the REST cursor API.
func (s *Store) ListIDs(ctx context.Context, collection string, after string, limit int) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	getter := s.client.Data().ObjectsGetter().WithClassName(collection).WithLimit(limit)
	if after != "" {
		getter = getter.WithAfter(after)
	}
	objs, err := getter.Do(ctx)
	if err != nil {
		return nil, classify("listing objects", err)
	}
	ids := make([]string, 0, len(objs))
	for _, o := range objs {
		ids = append(ids, o.ID.String())
	}
	return ids, nil
}

// Sample returns the first limit objects of the class.
func (s *Store) Sample(ctx context.Context, collection string, limit int) ([]*core.StoredRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	objs, err := s.client.Data().ObjectsGetter().WithClassName(collection).WithLimit(limit).Do(ctx)
	if err != nil {
		return nil, classify("sampling objects", err)
	}

	def := storage.CandidateCollection(collection, storage.VectorizerPolicy{})
	out := make([]*core.StoredRecord, 0, len(objs))
	for _, o := range objs {
		props, _ := o.Properties.(map[string]any)
		rec, err := s.decode(props, def)
		if err != nil {
			return nil, err
		}
		out = append(out, &core.StoredRecord{ID: o.ID.String(), Record: rec})
	}
	return out, nil
}

// FindByField queries objects whose text property equals value.
func (s *Store) FindByField(ctx context.Context, collection, field, value string, limit int) ([]*core.StoredRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	def := storage.CandidateCollection(collection, storage.VectorizerPolicy{})
	if p, ok := def.Property(field); !ok || p.DataType != storage.DataTypeText {
		return nil, fmt.Errorf("%w: %q is not a text property of %s", storage.ErrRejected, field, collection)
	}

	where := filters.Where().
		WithPath([]string{field}).
		WithOperator(filters.Equal).
		WithValueText(value)
	resp, err := s.client.GraphQL().Get().
		WithClassName(collection).
		WithFields(selectFields(def)...).
		WithWhere(where).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, classify("query by field", err)
	}

	hits, err := s.rows(resp, def)
	if err != nil {
		return nil, err
	}
	out := make([]*core.StoredRecord, len(hits))
	for i, h := range hits {
		out[i] = &core.StoredRecord{ID: h.ID, Record: h.Record}
	}
	return out, nil
}

// Search runs a nearText query. Score is 1 - cosine distance.
func (s *Store) Search(ctx context.Context, collection, query string, limit int) ([]*core.SearchResult, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	def := storage.CandidateCollection(collection, storage.VectorizerPolicy{})
	nearText := s.client.GraphQL().NearTextArgBuilder().WithConcepts([]string{query})

	resp, err := s.client.GraphQL().Get().
		WithClassName(collection).
		WithFields(selectFields(def)...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, classify("near text search", err)
	}
	return s.rows(resp, def)
}

func (s *Store) rows(resp *models.GraphQLResponse, def *storage.CollectionDefinition) ([]*core.SearchResult, error) {
	if err := graphQLError(resp); err != nil {
		return nil, err
	}
	rows, err := graphQLRows(resp, "Get", def.Name)
	if err != nil {
		return nil, err
	}

	out := make([]*core.SearchResult, 0, len(rows))
	for _, row := range rows {
		additional, _ := row["_additional"].(map[string]any)
		delete(row, "_additional")

		rec, err := s.decode(row, def)
		if err != nil {
			return nil, err
		}
		hit := &core.SearchResult{Record: rec}
		hit.ID, _ = additional["id"].(string)
		if d, ok := additional["distance"].(float64); ok {
			hit.Score = float32(1 - d)
		}
		out = append(out, hit)
	}
	return out, nil
}

func (s *Store) decode(props map[string]any, def *storage.CollectionDefinition) (*core.CandidateRecord, error) {
	if props == nil {
		props = map[string]any{}
	}
	canonicalizeDates(props, def.Properties)
	return storage.RecordFromProperties(props)
}
