package database

import (
	"context"
	"database/sql"
)

// Database is the narrow surface the stores depend on. ExecWithRetry exists
// because a single-connection sqlite database under WAL can still report
// "database is locked" when a writer overlaps a long read.
type Database interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Close() error
}
