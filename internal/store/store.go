// Package store persists decoded blocks to PostgreSQL and serves the
// read-side query layer.
//
// Grounded on the original's Database (original_source/indexer/src/database.rs),
// which wraps a connection pool (deadpool-postgres there, pgxpool here)
// behind a single type and runs embedded migrations (refinery there,
// golang-migrate here) at startup. The per-block scoped-transaction
// shape is grounded on original_source/indexer/src/main.rs's
// process_block.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourusername/btcindexer/internal/config"
)

// Store wraps a pooled connection to the index database.
type Store struct {
	pool *pgxpool.Pool
}

// Error is the StoreError kind: a failure scoped to a single unit of
// work (one block's transaction). The ingest stage logs this and skips
// the block rather than aborting the pipeline.
type Error struct {
	Op    string
	Cause error
}

func (e *Error) Error() string { return fmt.Sprintf("store: %s: %s", e.Op, e.Cause) }
func (e *Error) Unwrap() error { return e.Cause }

// New opens a connection pool against the configured database.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool's connections.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pool. Migrate does not use it; it opens
// a database/sql handle of its own.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
