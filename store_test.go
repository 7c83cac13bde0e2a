package talentload

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentload/config"
	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/storage"
)

func TestOpenStore_BadgerEmbeddingsFollowVectorizerModel(t *testing.T) {
	var (
		mu     sync.Mutex
		models []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		models = append(models, req.Model)
		mu.Unlock()

		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{float32(len(text)), 1}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.Embedding.Enabled = true
	cfg.Embedding.Host = srv.URL
	cfg.Vectorizer.Model = "text-embedding-3-large"
	cfg.Vectorizer.APIKey = "test-key"

	ctx := context.Background()
	store, err := OpenStore(ctx, cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	r, err := NewRunner(store, cfg)
	require.NoError(t, err)
	report := r.Run(ctx, strings.NewReader(cleanInput))
	require.NoError(t, report.Err)
	assert.Equal(t, OutcomeVerified, report.Outcome)

	hits, err := store.Search(ctx, storage.DefaultCollection, "Grace Hopper", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, models)
	for _, m := range models {
		assert.Equal(t, "text-embedding-3-large", m)
	}
}

func TestOpenStore_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "store")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	cfg := testConfig()
	cfg.Store.InMemory = false
	cfg.Store.Path = file

	_, err := OpenStore(context.Background(), cfg, slog.Default())
	assert.ErrorIs(t, err, core.ErrStoreSetup)

	cfg = testConfig()
	cfg.Store.Backend = config.BackendWeaviate
	cfg.Store.URL = ""
	_, err = OpenStore(context.Background(), cfg, slog.Default())
	assert.ErrorIs(t, err, core.ErrStoreSetup)
}
