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


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/talentload"
	"github.com/poiesic/talentload/config"
	"github.com/poiesic/talentload/extract"
	"github.com/poiesic/talentload/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "talentload",
		Usage: "Load candidate profiles into a vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Store backend (weaviate, badger)",
			},
			&cli.StringFlag{
				Name:  "collection",
				Usage: "Target collection name",
			},
			&cli.StringFlag{
				Name:  "store-url",
				Usage: "Weaviate cluster URL (overrides " + config.EnvWeaviateURL + ")",
			},
			&cli.StringFlag{
				Name:  "store-path",
				Usage: "BadgerDB directory for the badger backend",
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Use an in-memory badger store",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Drop and recreate the candidate collection",
				Action: schemaCommand,
			},
			{
				Name:   "load",
				Usage:  "Load an NDJSON file of candidate records",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to the newline-delimited JSON input",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Abort on the first malformed line (the file is checked before the collection is reset)",
					},
					&cli.BoolFlag{
						Name:  "skip-schema",
						Usage: "Load into the existing collection instead of recreating it",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records per batch insert",
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Maximum attempts for a failing batch",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
					},
					&cli.IntFlag{
						Name:  "flush-workers",
						Usage: "Number of batches that may be in flight at once",
					},
					&cli.BoolFlag{
						Name:  "validate",
						Usage: "Check each normalized record against the candidate JSON Schema",
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "Write Prometheus metrics to this file when the run ends",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on stderr",
						Value: true,
					},
				},
			},
			{
				Name:   "verify",
				Usage:  "Compare the collection size with an expected count",
				Action: verifyCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "expected",
						Usage:    "Number of records that should be stored",
						Required: true,
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Export candidate rows from the warehouse as NDJSON",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Path of the NDJSON file to write",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "database-url",
						Usage: "Warehouse connection string (overrides " + config.EnvWarehouseURL + ")",
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "SELECT returning candidate rows",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Run a semantic query against the collection",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 5,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	return installLogger(c.String("log-level"), c.App.ErrWriter)
}

func installLogger(levelStr string, w io.Writer) error {
	levelStr = strings.ToLower(levelStr)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	if w == nil {
		w = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig layers file, environment and flags. Flags win.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.Logging.Level = strings.ToLower(c.String("log-level"))
	} else if err := installLogger(cfg.Logging.Level, c.App.ErrWriter); err != nil {
		return nil, err
	}
	if c.IsSet("backend") {
		cfg.Store.Backend = c.String("backend")
	}
	if c.IsSet("collection") {
		cfg.Store.Collection = c.String("collection")
	}
	if c.IsSet("store-url") {
		cfg.Store.URL = c.String("store-url")
	}
	if c.IsSet("store-path") {
		cfg.Store.Path = c.String("store-path")
	}
	if c.IsSet("in-memory") {
		cfg.Store.InMemory = c.Bool("in-memory")
	}

	if c.IsSet("strict") {
		cfg.Load.Strict = c.Bool("strict")
	}
	if c.IsSet("skip-schema") {
		cfg.Load.SkipSchema = c.Bool("skip-schema")
	}
	if c.IsSet("batch-size") {
		cfg.Load.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("max-attempts") {
		cfg.Load.MaxAttempts = c.Int("max-attempts")
	}
	if c.IsSet("retry-delay") {
		cfg.Load.RetryDelay = c.Duration("retry-delay")
	}
	if c.IsSet("flush-workers") {
		cfg.Load.FlushWorkers = c.Int("flush-workers")
	}
	if c.IsSet("validate") {
		cfg.Load.Validate = c.Bool("validate")
	}
	if c.IsSet("metrics-file") {
		cfg.Load.MetricsFile = c.String("metrics-file")
	}
	if c.IsSet("database-url") {
		cfg.Source.DatabaseURL = c.String("database-url")
	}
	if c.IsSet("query") && c.Command.Name == "export" {
		cfg.Source.Query = c.String("query")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openRunner loads configuration and connects to the store. Failures exit
// with the setup failure code.
func openRunner(c *cli.Context, opts ...talentload.RunnerOption) (*talentload.Runner, storage.Store, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, nil, setupExit(err)
	}
	store, err := talentload.OpenStore(c.Context, cfg, slog.Default())
	if err != nil {
		return nil, nil, nil, setupExit(err)
	}
	runner, err := talentload.NewRunner(store, cfg, opts...)
	if err != nil {
		store.Close()
		return nil, nil, nil, setupExit(err)
	}
	return runner, store, cfg, nil
}

func setupExit(err error) error {
	return cli.Exit(err.Error(), talentload.OutcomeSetupFailed.ExitCode())
}

func schemaCommand(c *cli.Context) error {
	runner, store, cfg, err := openRunner(c)
	if err != nil {
		return err
	}
	defer store.Close()

	outcome, err := runner.ResetSchema(c.Context)
	if err != nil {
		return setupExit(err)
	}
	fmt.Fprintf(c.App.Writer, "Collection %s created (existing collection dropped: %t)\n", cfg.Store.Collection, outcome.Dropped)
	return nil
}

func loadCommand(c *cli.Context) error {
	var opts []talentload.RunnerOption
	if c.Bool("progress") {
		opts = append(opts, talentload.WithProgressOutput(c.App.ErrWriter))
	}
	runner, store, _, err := openRunner(c, opts...)
	if err != nil {
		return err
	}
	defer store.Close()

	input, err := os.Open(c.String("input"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open input: %v", err), talentload.OutcomeInputAborted.ExitCode())
	}
	defer input.Close()

	report := runner.Run(c.Context, input)
	if err := report.WriteSummary(c.App.Writer); err != nil {
		return err
	}
	if code := report.Outcome.ExitCode(); code != 0 {
		msg := report.Outcome.String()
		if report.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, report.Err)
		}
		return cli.Exit(msg, code)
	}
	return nil
}

func verifyCommand(c *cli.Context) error {
	runner, store, cfg, err := openRunner(c)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := runner.Verify(c.Context, c.Int("expected"))
	if err != nil {
		return cli.Exit(err.Error(), talentload.OutcomeDiscrepancy.ExitCode())
	}
	fmt.Fprintf(c.App.Writer, "Collection %s: expected %d, store reports %d (%s)\n",
		cfg.Store.Collection, result.Expected, result.Actual, result.Method)
	if err := result.Err(); err != nil {
		return cli.Exit(err.Error(), talentload.OutcomeDiscrepancy.ExitCode())
	}
	return nil
}

func exportCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return setupExit(err)
	}
	if c.IsSet("database-url") {
		cfg.Source.DatabaseURL = c.String("database-url")
	}
	if c.IsSet("query") {
		cfg.Source.Query = c.String("query")
	}
	if cfg.Source.DatabaseURL == "" {
		return setupExit(fmt.Errorf("warehouse connection string required: set --database-url or %s", config.EnvWarehouseURL))
	}

	var opts []extract.PostgresOption
	if cfg.Source.Query != "" {
		opts = append(opts, extract.WithQuery(cfg.Source.Query))
	}
	src, err := extract.ConnectPostgres(c.Context, cfg.Source.DatabaseURL, opts...)
	if err != nil {
		return setupExit(err)
	}
	defer src.Close()

	out, err := os.Create(c.String("output"))
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	n, err := extract.Export(c.Context, src, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Exported %d records to %s\n", n, c.String("output"))
	return nil
}

func searchCommand(c *cli.Context) error {
	_, store, cfg, err := openRunner(c)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(c.Context, cfg.Store.Collection, c.String("query"), c.Int("limit"))
	if errors.Is(err, storage.ErrSearchUnsupported) {
		return fmt.Errorf("search is not available: the store has no vectorizer configured")
	}
	if err != nil {
		return err
	}
	for i, r := range results {
		fmt.Fprintf(c.App.Writer, "%d. %s (score %.3f, id %s)\n", i+1, r.Record.Name, r.Score, r.ID)
		if len(r.Record.Skills) > 0 {
			fmt.Fprintf(c.App.Writer, "   skills: %s\n", strings.Join(r.Record.Skills, ", "))
		}
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No results")
	}
	return nil
}
