package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryRower and execer are satisfied by both the pool and a pgx.Tx, so
// helpers can run inside or outside a transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type execer interface {
	queryRower
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}
