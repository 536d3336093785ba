// Package postgres is the pgvector-backed storage driver: vector index, interaction
// history, fallback sampler and profile store over two tables.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
)

// Config holds connection parameters.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// DB implements every storage contract of the retrieval path on PostgreSQL.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to PostgreSQL. The connection is lazy; use WaitForReady.
func Open(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sqlDB, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return &DB{db: sqlDB, now: time.Now}, nil
}

// NewForTest wraps an existing handle (test-only).
func NewForTest(sqlDB *sql.DB, now func() time.Time) *DB {
	return &DB{db: sqlDB, now: now}
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping")
	}
	return nil
}

// Close releases the pool.
func (d *DB) Close() {
	_ = d.db.Close()
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (d *DB) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := d.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "timeout waiting for database")
		case <-ticker.C:
		}
	}
}

// EnsureSchema creates the tables and the HNSW index when missing.
func (d *DB) EnsureSchema(ctx context.Context, dim int) error {
	if dim <= 0 {
		return errors.Errorf("invalid vector dimension %d", dim)
	}
	for _, stmt := range schemaStatements(dim) {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to apply schema statement %q", firstLine(stmt))
		}
	}
	return nil
}

func schemaStatements(dim int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS candidate (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			headline TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			avatar_url TEXT NOT NULL DEFAULT '',
			attributes JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d),
			updated_ts BIGINT NOT NULL,
			PRIMARY KEY (kind, id)
		)`, dim),
		`CREATE INDEX IF NOT EXISTS idx_candidate_embedding
			ON candidate USING hnsw (embedding vector_cosine_ops)`,
		`CREATE TABLE IF NOT EXISTS interaction (
			actor_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			target_id TEXT NOT NULL,
			action TEXT NOT NULL,
			created_ts BIGINT NOT NULL,
			PRIMARY KEY (actor_id, kind, target_id)
		)`,
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func placeholder(n int) string {
	return "$" + fmt.Sprint(n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}
