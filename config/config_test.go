package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentload/storage"
)

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talentload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func validConfig() *Config {
	cfg := Default()
	cfg.Store.URL = "https://cluster.example.weaviate.cloud"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendWeaviate, cfg.Store.Backend)
	assert.Equal(t, storage.DefaultCollection, cfg.Store.Collection)
	assert.Equal(t, 100, cfg.Load.BatchSize)
	assert.Equal(t, 3, cfg.Load.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Load.RetryDelay)
	assert.Equal(t, 10000, cfg.Verify.SampleCap)
	assert.False(t, cfg.Load.Strict)

	// Defaults alone lack the store URL.
	assert.ErrorIs(t, cfg.Validate(), ErrMissingStoreURL)
	assert.NoError(t, validConfig().Validate())
}

func TestMergeFile(t *testing.T) {
	path := createTempConfigFile(t, `
store:
  backend: badger
  path: /var/lib/talentload
  collection: Talent
  read_timeout: 2m
load:
  batch_size: 250
  strict: true
  retry_delay: 500ms
vectorizer:
  module: none
  fields: []
logging:
  level: debug
`)
	cfg := Default()
	require.NoError(t, cfg.MergeFile(path))

	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, "Talent", cfg.Store.Collection)
	assert.Equal(t, 2*time.Minute, cfg.Store.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Store.ConnectTimeout, "unset keys keep defaults")
	assert.Equal(t, 250, cfg.Load.BatchSize)
	assert.Equal(t, 3, cfg.Load.MaxAttempts)
	assert.True(t, cfg.Load.Strict)
	assert.Equal(t, 500*time.Millisecond, cfg.Load.RetryDelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestMergeFile_Errors(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.MergeFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := createTempConfigFile(t, "load:\n  batch_sise: 10\n")
	assert.Error(t, cfg.MergeFile(path), "unknown keys are rejected")

	empty := createTempConfigFile(t, "")
	assert.NoError(t, cfg.MergeFile(empty))
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Load.FlushTimeout = 90 * time.Second
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))

	loaded := Default()
	require.NoError(t, loaded.MergeFile(path))
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvWeaviateURL:    "https://env.example",
		EnvWeaviateAPIKey: "wv-key",
		EnvOpenAIAPIKey:   "sk-test",
		EnvWarehouseURL:   "postgres://warehouse/analytics",
	}
	cfg := Default()
	cfg.Store.URL = "https://file.example"
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "https://env.example", cfg.Store.URL)
	assert.Equal(t, "wv-key", cfg.Store.APIKey)
	assert.Equal(t, "sk-test", cfg.Vectorizer.APIKey)
	assert.Equal(t, "postgres://warehouse/analytics", cfg.Source.DatabaseURL)

	cfg.ApplyEnv(func(string) (string, bool) { return "", true })
	assert.Equal(t, "https://env.example", cfg.Store.URL, "empty values do not clear settings")
}

func TestLoad_EnvFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(".env.local", []byte("WEAVIATE_CLUSTER_URL=https://local.example\n"), 0o600))
	require.NoError(t, os.WriteFile(".env", []byte("WEAVIATE_CLUSTER_URL=https://shared.example\nWEAVIATE_API_KEY=from-dotenv\n"), 0o600))
	t.Setenv(EnvWeaviateAPIKey, "from-process")
	t.Setenv(EnvWeaviateURL, "")
	os.Unsetenv(EnvWeaviateURL)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://local.example", cfg.Store.URL)
	assert.Equal(t, "from-process", cfg.Store.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "valid", mutate: func(*Config) {}, ok: true},
		{name: "lowercase collection", mutate: func(c *Config) { c.Store.Collection = "candidate" }},
		{name: "collection with colon", mutate: func(c *Config) { c.Store.Collection = "Cand:idate" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "sqlite" }},
		{name: "bad url", mutate: func(c *Config) { c.Store.URL = "not a url" }},
		{name: "zero batch size", mutate: func(c *Config) { c.Load.BatchSize = 0 }},
		{name: "zero attempts", mutate: func(c *Config) { c.Load.MaxAttempts = 0 }},
		{name: "too many attempts", mutate: func(c *Config) { c.Load.MaxAttempts = 64 }},
		{name: "ten attempts", mutate: func(c *Config) { c.Load.MaxAttempts = 10 }, ok: true},
		{name: "negative delay", mutate: func(c *Config) { c.Load.RetryDelay = -time.Second }},
		{name: "zero flush timeout", mutate: func(c *Config) { c.Load.FlushTimeout = 0 }},
		{name: "zero read timeout", mutate: func(c *Config) { c.Store.ReadTimeout = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }},
		{name: "unknown vectorized field", mutate: func(c *Config) { c.Vectorizer.Fields = []string{"nickname"} }},
		{name: "non text vectorized field", mutate: func(c *Config) { c.Vectorizer.Fields = []string{"education"} }},
		{name: "badger without path", mutate: func(c *Config) { c.Store.Backend = BackendBadger }},
		{
			name: "badger in memory",
			mutate: func(c *Config) {
				c.Store.Backend = BackendBadger
				c.Store.URL = ""
				c.Store.InMemory = true
			},
			ok: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_MessageUsesYAMLPath(t *testing.T) {
	cfg := validConfig()
	cfg.Load.BatchSize = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load.batch_size must satisfy min=1")
}

func TestString_OmitsCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Store.APIKey = "secret-key"
	assert.NotContains(t, cfg.String(), "secret-key")
}
