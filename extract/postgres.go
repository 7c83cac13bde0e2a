package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultQuery selects the enriched candidate view.
const DefaultQuery = "SELECT * FROM candidate_enriched_ai"

// PostgresSource reads rows from a Postgres-compatible warehouse. Each row is
// fetched as a JSON document so nested composite and array columns keep
// their structure.
type PostgresSource struct {
	pool   *pgxpool.Pool
	query  string
	logger *slog.Logger
}

// PostgresOption configures a PostgresSource.
type PostgresOption func(*PostgresSource) error

// WithQuery replaces DefaultQuery. The query must be a single SELECT.
func WithQuery(query string) PostgresOption {
	return func(s *PostgresSource) error {
		query = strings.TrimRight(strings.TrimSpace(query), ";")
		if query == "" {
			return errors.New("query must not be empty")
		}
		s.query = query
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) PostgresOption {
	return func(s *PostgresSource) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// ConnectPostgres opens a connection pool and verifies it with a ping.
func ConnectPostgres(ctx context.Context, databaseURL string, opts ...PostgresOption) (*PostgresSource, error) {
	s := &PostgresSource{
		query:  DefaultQuery,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "warehouse")

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Close closes the connection pool.
func (s *PostgresSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// wrapQuery turns a SELECT into one returning a JSON document per row.
func wrapQuery(query string) string {
	return "SELECT row_to_json(t) FROM (" + query + ") AS t"
}

// Rows streams the query result.
func (s *PostgresSource) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rows, err := s.pool.Query(ctx, wrapQuery(s.query))
		if err != nil {
			yield(nil, fmt.Errorf("failed to query warehouse: %w", err))
			return
		}
		defer rows.Close()

		n := 0
		for rows.Next() {
			var doc []byte
			if err := rows.Scan(&doc); err != nil {
				yield(nil, fmt.Errorf("failed to scan row %d: %w", n+1, err))
				return
			}
			row, err := decodeRow(doc)
			if err != nil {
				yield(nil, fmt.Errorf("failed to decode row %d: %w", n+1, err))
				return
			}
			n++
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("failed reading warehouse rows: %w", err))
			return
		}
		s.logger.Debug("warehouse query complete", "rows", n)
	}
}

func decodeRow(doc []byte) (Row, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var row Row
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}
