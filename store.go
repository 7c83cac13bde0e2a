// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package talentload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/talentload/ai"
	"github.com/poiesic/talentload/ai/openai"
	"github.com/poiesic/talentload/config"
	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/storage"
	"github.com/poiesic/talentload/storage/badger"
	"github.com/poiesic/talentload/storage/weaviate"
)

// OpenStore connects to the store selected by cfg.Store.Backend. Any failure
// is wrapped in core.ErrStoreSetup.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Store.Backend {
	case config.BackendWeaviate:
		store, err := weaviate.Connect(ctx, weaviate.Config{
			URL:              cfg.Store.URL,
			APIKey:           cfg.Store.APIKey,
			VectorizerAPIKey: cfg.Vectorizer.APIKey,
			ConnectTimeout:   cfg.Store.ConnectTimeout,
			ReadTimeout:      cfg.Store.ReadTimeout,
		}, weaviate.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrStoreSetup, err)
		}
		return store, nil

	case config.BackendBadger:
		opts := []badger.Option{badger.WithLogger(logger)}
		if cfg.Embedding.Enabled {
			aiOpts := []ai.ConfigOption{ai.WithAPIKey(cfg.Vectorizer.APIKey)}
			if cfg.Embedding.Host != "" {
				aiOpts = append(aiOpts, ai.WithEmbeddingHost(cfg.Embedding.Host))
			}
			// Local vectors follow the remote vectorizer's model unless overridden.
			switch {
			case cfg.Embedding.Model != "":
				aiOpts = append(aiOpts, ai.WithEmbeddingModel(cfg.Embedding.Model))
			case cfg.Vectorizer.Model != "":
				aiOpts = append(aiOpts, ai.WithEmbeddingModel(cfg.Vectorizer.Model))
			}
			embedder, err := openai.NewEmbedder(ai.NewConfig(aiOpts...), openai.WithLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("%w: creating embedder: %w", core.ErrStoreSetup, err)
			}
			opts = append(opts, badger.WithEmbedder(embedder))
		}

		var (
			store *badger.Store
			err   error
		)
		if cfg.Store.InMemory {
			store, err = badger.NewMemoryStore(opts...)
		} else {
			store, err = badger.Open(cfg.Store.Path, opts...)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: opening badger store: %w", core.ErrStoreSetup, err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: unknown store backend %q", core.ErrStoreSetup, cfg.Store.Backend)
}
