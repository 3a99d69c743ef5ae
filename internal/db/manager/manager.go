package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

// to_regclass resolves through search_path and returns NULL instead of
// raising when the relation is missing.
const queryTableExists = "SELECT to_regclass($1) IS NOT NULL"

// Manager implements table lifecycle operations over an ingest.DBConn.
// Stateless; thread safety depends on the connection passed in.
type Manager struct{}

// New creates a new Manager.
func New() *Manager {
	return &Manager{}
}

// Exists reports whether table is visible on the connection's search_path.
func (m *Manager) Exists(ctx context.Context, conn ingest.DBConn, table string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, queryTableExists, pgx.Identifier{table}.Sanitize()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: failed to check whether table %q exists: %w", ingest.ErrWriteFailed, table, err)
	}
	return exists, nil
}

// Drop drops table if it exists.
func (m *Manager) Drop(ctx context.Context, conn ingest.DBConn, table string) error {
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{table}.Sanitize())
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: failed to drop table %q: %w", ingest.ErrWriteFailed, table, err)
	}
	return nil
}

// Create executes a CREATE TABLE statement.
func (m *Manager) Create(ctx context.Context, conn ingest.DBConn, ddl string) error {
	if _, err := conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: failed to create table: %w", ingest.ErrWriteFailed, err)
	}
	return nil
}

var _ ingest.TableManager = (*Manager)(nil)
