package ingest

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConn abstracts the single database connection held for the whole run.
// Only the operations the loader needs are exposed.
//
// Thread-Safety: NOT safe for concurrent use; a run issues one statement at a time.
type DBConn interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// CopyFrom bulk-loads rows with the COPY protocol and returns the number
	// of rows copied. The rows are written in the order rowSrc yields them.
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rowSrc pgx.CopyFromSource) (int64, error)

	// Close terminates the connection and releases any resources tied to it.
	Close(ctx context.Context) error
}

// Row represents a single row returned by QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	// Returns an error if no row was found or if the scan fails.
	Scan(dest ...any) error
}
