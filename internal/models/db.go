package models

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// DBTX is the part of *pgxpool.Pool the stores use.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
