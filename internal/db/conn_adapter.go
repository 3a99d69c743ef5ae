package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

// ConnAdapter adapts *pgx.Conn to the ingest.DBConn interface.
// Not safe for concurrent use, like the connection it wraps.
type ConnAdapter struct {
	conn    *pgx.Conn
	onClose func() error
}

// NewConnAdapter wraps conn. onClose, when non-nil, runs after the connection
// is closed and releases resources the connection depended on (a cloud dialer).
func NewConnAdapter(conn *pgx.Conn, onClose func() error) *ConnAdapter {
	return &ConnAdapter{conn: conn, onClose: onClose}
}

// Exec executes a statement without returning any rows.
func (a *ConnAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.conn.Exec(ctx, sql, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (a *ConnAdapter) QueryRow(ctx context.Context, sql string, args ...any) ingest.Row {
	return &rowAdapter{row: a.conn.QueryRow(ctx, sql, args...)}
}

// CopyFrom streams rows into table with the COPY protocol.
func (a *ConnAdapter) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error) {
	return a.conn.CopyFrom(ctx, table, columns, rows)
}

// Close closes the connection, then runs the release hook.
func (a *ConnAdapter) Close(ctx context.Context) error {
	err := a.conn.Close(ctx)
	if a.onClose != nil {
		err = errors.Join(err, a.onClose())
	}
	return err
}

// rowAdapter adapts pgx.Row to implement ingest.Row.
type rowAdapter struct {
	row interface{ Scan(...any) error }
}

func (r *rowAdapter) Scan(dest ...any) error {
	return r.row.Scan(dest...)
}

var _ ingest.DBConn = (*ConnAdapter)(nil)
