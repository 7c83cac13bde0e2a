// Package config provides layered configuration for a load run: built-in
// defaults, an optional YAML file, .env files, environment variables and
// finally command-line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/talentload/ingestion"
	"github.com/poiesic/talentload/storage"
	"github.com/poiesic/talentload/verify"
)

// Environment variables read by ApplyEnv.
const (
	EnvWeaviateURL    = "WEAVIATE_CLUSTER_URL"
	EnvWeaviateAPIKey = "WEAVIATE_API_KEY"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvWarehouseURL   = "WAREHOUSE_DATABASE_URL"
)

// Store backends.
const (
	BackendWeaviate = "weaviate"
	BackendBadger   = "badger"
)

// DefaultEnvFiles are read by LoadEnvFiles, earlier files taking precedence.
var DefaultEnvFiles = []string{".env.local", ".env"}

// Config is the complete run configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Load       LoadConfig       `yaml:"load"`
	Verify     VerifyConfig     `yaml:"verify"`
	Source     SourceConfig     `yaml:"source"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StoreConfig selects and addresses the record store.
type StoreConfig struct {
	Backend        string        `yaml:"backend" validate:"oneof=weaviate badger"`
	Collection     string        `yaml:"collection" validate:"required,collection"`
	URL            string        `yaml:"url" validate:"omitempty,url"`
	APIKey         string        `yaml:"api_key"`
	Path           string        `yaml:"path"`
	InMemory       bool          `yaml:"in_memory"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
}

// VectorizerConfig is the collection's text vectorization policy. APIKey is
// passed to the store for its embedding provider.
type VectorizerConfig struct {
	Module string   `yaml:"module"`
	Model  string   `yaml:"model"`
	Fields []string `yaml:"fields"`
	APIKey string   `yaml:"api_key"`
}

// EmbeddingConfig configures the embedder used by the embedded store.
type EmbeddingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host" validate:"omitempty,url"`
	Model   string `yaml:"model"`
}

// LoadConfig tunes the batch loader.
type LoadConfig struct {
	BatchSize        int           `yaml:"batch_size" validate:"min=1"`
	MaxAttempts      int           `yaml:"max_attempts" validate:"min=1,max=10"`
	RetryDelay       time.Duration `yaml:"retry_delay" validate:"gte=0"`
	FlushTimeout     time.Duration `yaml:"flush_timeout" validate:"gt=0"`
	FlushWorkers     int           `yaml:"flush_workers" validate:"min=1,max=64"`
	Strict           bool          `yaml:"strict"`
	Validate         bool          `yaml:"validate"`
	SkipSchema       bool          `yaml:"skip_schema"`
	ProgressInterval int           `yaml:"progress_interval" validate:"min=0"`
	MetricsFile      string        `yaml:"metrics_file"`
}

// VerifyConfig tunes reconciliation.
type VerifyConfig struct {
	SampleCap int `yaml:"sample_cap" validate:"min=1"`
	SpotCheck int `yaml:"spot_check" validate:"min=0"`
}

// SourceConfig addresses the warehouse used by export.
type SourceConfig struct {
	DatabaseURL string `yaml:"database_url"`
	Query       string `yaml:"query"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:        BackendWeaviate,
			Collection:     storage.DefaultCollection,
			ConnectTimeout: 30 * time.Second,
			ReadTimeout:    60 * time.Second,
		},
		Vectorizer: VectorizerConfig{
			Module: storage.DefaultVectorizerModule,
			Fields: append([]string(nil), storage.DefaultVectorizedFields...),
		},
		Load: LoadConfig{
			BatchSize:        ingestion.DefaultBatchSize,
			MaxAttempts:      ingestion.DefaultMaxAttempts,
			RetryDelay:       ingestion.DefaultRetryDelay,
			FlushTimeout:     ingestion.DefaultFlushTimeout,
			FlushWorkers:     ingestion.DefaultFlushWorkers,
			ProgressInterval: 1000,
		},
		Verify: VerifyConfig{
			SampleCap: verify.DefaultSampleCap,
			SpotCheck: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path (if
// path is not empty), the default .env files and the environment. The
// result is not validated so that flags can still be applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadEnvFiles(DefaultEnvFiles...); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// MergeFile overlays the YAML file at path onto c. Unknown keys are errors.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}
	return nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadEnvFiles loads variables from the given .env files into the process
// environment. Missing files are ignored and variables that are already set
// are never overwritten.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides credentials and endpoints from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Store.URL, EnvWeaviateURL)
	set(&c.Store.APIKey, EnvWeaviateAPIKey)
	set(&c.Vectorizer.APIKey, EnvOpenAIAPIKey)
	set(&c.Source.DatabaseURL, EnvWarehouseURL)
}

// VectorizerPolicy returns the collection vectorization policy.
func (c *Config) VectorizerPolicy() storage.VectorizerPolicy {
	return storage.VectorizerPolicy{
		Module: c.Vectorizer.Module,
		Model:  c.Vectorizer.Model,
		Fields: c.Vectorizer.Fields,
	}
}

// CollectionDefinition returns the definition of the configured collection.
func (c *Config) CollectionDefinition() *storage.CollectionDefinition {
	return storage.CandidateCollection(c.Store.Collection, c.VectorizerPolicy())
}

// String returns a summary safe to log; credentials are omitted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Backend: %s, Collection: %s, BatchSize: %d, MaxAttempts: %d, Strict: %t}",
		c.Store.Backend, c.Store.Collection, c.Load.BatchSize, c.Load.MaxAttempts, c.Load.Strict)
}
