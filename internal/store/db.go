package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of *pgxpool.Pool this package depends on. It exists
// so tests can substitute pgxmock.PgxPoolIface (a superset of this
// interface) for the real pool without touching a live Postgres instance.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Database is the thin handle the rest of the package builds
// transactional unit-of-work scopes on top of. It is process-wide,
// constructed once at startup and passed by constructor parameter —
// no implicit singleton.
type Database struct {
	Pool Pool
}

// NewDatabase connects to Postgres and verifies the connection is live.
func NewDatabase(ctx context.Context, url string) (*Database, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Database{Pool: pool}, nil
}

// Close releases the pool. Safe to call once at process shutdown.
func (d *Database) Close() {
	d.Pool.Close()
}

// Begin starts a new transaction. Read-committed is sufficient: contention
// on outbox/inbox rows is avoided with row-level SKIP LOCKED leases rather
// than serializable isolation.
func (d *Database) Begin(ctx context.Context) (pgx.Tx, error) {
	return d.Pool.Begin(ctx)
}
