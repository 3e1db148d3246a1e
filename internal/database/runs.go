// Package database persists crawl run history. Each completed crawl writes
// one row so operators can see ingestion health over time without grepping
// logs. The store is optional; the pipeline runs with the no-op
// implementation when no DSN is configured.
package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run summarizes one completed crawl.
type Run struct {
	ID           string
	StartedAt    time.Time
	CompletedAt  time.Time
	URLCount     int
	SuccessCount int
	FailureCount int
	SnapshotURI  string
}

// Store records crawl runs.
type Store interface {
	RecordRun(ctx context.Context, run Run) error
	Close()
}

// NoOpStore discards run history.
type NoOpStore struct{}

// RecordRun does nothing.
func (NoOpStore) RecordRun(_ context.Context, _ Run) error { return nil }

// Close does nothing.
func (NoOpStore) Close() {}

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RunStoreConfig controls the Postgres connection pool.
type RunStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// RunStore writes run rows into Postgres.
//
// Expected schema:
//
//	CREATE TABLE crawl_runs (
//	    id UUID PRIMARY KEY,
//	    started_at TIMESTAMPTZ NOT NULL,
//	    completed_at TIMESTAMPTZ NOT NULL,
//	    url_count INT NOT NULL,
//	    success_count INT NOT NULL,
//	    failure_count INT NOT NULL,
//	    snapshot_uri TEXT NOT NULL
//	);
type RunStore struct {
	pool  execCloser
	table string
}

// NewRunStore connects a pgx pool using cfg.
func NewRunStore(ctx context.Context, cfg RunStoreConfig) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "crawl_runs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: pool, table: table}, nil
}

// NewRunStoreWithPool constructs a store from an existing pool, primarily
// for tests.
func NewRunStoreWithPool(pool execCloser, table string) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "crawl_runs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RunStore{pool: pool, table: table}, nil
}

// RecordRun inserts one run row.
func (s *RunStore) RecordRun(ctx context.Context, run Run) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, started_at, completed_at, url_count, success_count, failure_count, snapshot_uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.table)
	if _, err := s.pool.Exec(ctx, query,
		run.ID,
		run.StartedAt,
		run.CompletedAt,
		run.URLCount,
		run.SuccessCount,
		run.FailureCount,
		run.SnapshotURI,
	); err != nil {
		return fmt.Errorf("insert crawl run %s: %w", run.ID, err)
	}
	return nil
}

// Close releases the pool.
func (s *RunStore) Close() {
	s.pool.Close()
}
