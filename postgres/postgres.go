package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PGStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore implements workflow.Store using PostgreSQL via pgx.
type PGStore struct {
	db DB
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db DB) *PGStore {
	return &PGStore{db: db}
}
