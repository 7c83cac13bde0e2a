package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Keep developer .env files out of the test environment.
	t.Chdir(t.TempDir())

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(context.Background(), append([]string{"talentload"}, args...))
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var ec cli.ExitCoder
	require.True(t, errors.As(err, &ec), "error %v has no exit code", err)
	return ec.ExitCode()
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidates.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCommand(t *testing.T) {
	input := writeInput(t, `{"name": "Ada"}
{"name": "Grace", "education": [{"university_start_year": 0}]}
`)
	out, err := runApp(t, "--backend", "badger", "--in-memory", "load", "--input", input, "--progress=false")
	require.NoError(t, err)
	assert.Contains(t, out, "verified")
	assert.Contains(t, out, "Records submitted")
}

func TestLoadCommand_ExitCodes(t *testing.T) {
	t.Setenv("WEAVIATE_CLUSTER_URL", "")
	malformed := writeInput(t, "{\"name\": \"Ada\"}\nnot json\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{
			name: "lenient with skipped line",
			args: []string{"--backend", "badger", "--in-memory", "load", "--input", malformed, "--progress=false"},
			code: 1,
		},
		{
			name: "strict abort",
			args: []string{"--backend", "badger", "--in-memory", "load", "--input", malformed, "--strict", "--progress=false"},
			code: 4,
		},
		{
			name: "missing input file",
			args: []string{"--backend", "badger", "--in-memory", "load", "--input", filepath.Join(t.TempDir(), "missing"), "--progress=false"},
			code: 4,
		},
		{
			name: "invalid batch size",
			args: []string{"--backend", "badger", "--in-memory", "load", "--input", malformed, "--batch-size", "0"},
			code: 3,
		},
		{
			name: "weaviate without url",
			args: []string{"--backend", "weaviate", "load", "--input", malformed},
			code: 3,
		},
		{
			name: "skip schema without collection",
			args: []string{"--backend", "badger", "--in-memory", "load", "--input", malformed, "--skip-schema", "--progress=false"},
			code: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			assert.Equal(t, tt.code, exitCode(t, err))
		})
	}
}

func TestSchemaLoadVerify_PersistentStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	input := writeInput(t, "{\"name\": \"Ada\"}\n{\"name\": \"Grace\"}\n")
	store := []string{"--backend", "badger", "--store-path", dir}

	out, err := runApp(t, append(store, "schema")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Collection Candidate created (existing collection dropped: false)")

	_, err = runApp(t, append(store, "load", "--input", input, "--skip-schema", "--progress=false")...)
	require.NoError(t, err)

	out, err = runApp(t, append(store, "verify", "--expected", "2")...)
	require.NoError(t, err)
	assert.Contains(t, out, "expected 2, store reports 2")

	_, err = runApp(t, append(store, "verify", "--expected", "3")...)
	assert.Equal(t, 2, exitCode(t, err))
}

func TestSearchCommand_NoVectorizer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	store := []string{"--backend", "badger", "--store-path", dir}

	_, err := runApp(t, append(store, "schema")...)
	require.NoError(t, err)

	_, err = runApp(t, append(store, "search", "--query", "go engineer")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search is not available")
}

func TestExportCommand_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("WAREHOUSE_DATABASE_URL", "")
	_, err := runApp(t, "export", "--output", filepath.Join(t.TempDir(), "out.ndjson"))
	assert.Equal(t, 3, exitCode(t, err))
}

func TestRequiredFlags(t *testing.T) {
	_, err := runApp(t, "load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")

	_, err = runApp(t, "verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected")
}

func TestInstallLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		assert.NoError(t, installLogger(level, &bytes.Buffer{}), level)
	}
	assert.Error(t, installLogger("trace", &bytes.Buffer{}))

	_, err := runApp(t, "--log-level", "verbose", "schema")
	assert.Error(t, err)
}
