// Package pgx implements the run storage interface on PostgreSQL.
package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// RunDBStorage implements store.RunStorage on a pgx connection or pool.
// Result rows are written in one transaction together with the status flip
// to completed, so readers never observe a half-persisted run.
type RunDBStorage struct {
	conn pgxIConn
}

// NewRunDBStorageWithConnection creates a RunDBStorage using an existing
// connection or pool.
func NewRunDBStorageWithConnection(conn pgxIConn) *RunDBStorage {
	return &RunDBStorage{conn: conn}
}
