package manager_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgingest/internal/db"
	"github.com/vvka-141/pgingest/internal/db/manager"
	"github.com/vvka-141/pgingest/internal/testinfra"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

// mockDBConn is a test double for ingest.DBConn
type mockDBConn struct {
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) ingest.Row
	execSQL      []string
}

func (m *mockDBConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execSQL = append(m.execSQL, sql)
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (m *mockDBConn) QueryRow(ctx context.Context, sql string, args ...any) ingest.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockDBConn) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}

func (m *mockDBConn) Close(context.Context) error { return nil }

// mockRow is a test double for ingest.Row
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFunc != nil {
		return m.scanFunc(dest...)
	}
	return nil
}

func TestManager_Drop_QuotesIdentifier(t *testing.T) {
	conn := &mockDBConn{}

	err := manager.New().Drop(context.Background(), conn, `yellow "taxi"; DROP TABLE users; --`)

	require.NoError(t, err)
	require.Len(t, conn.execSQL, 1)
	assert.Equal(t, `DROP TABLE IF EXISTS "yellow ""taxi""; DROP TABLE users; --"`, conn.execSQL[0])
}

func TestManager_Exists(t *testing.T) {
	for _, want := range []bool{true, false} {
		var gotArg any
		conn := &mockDBConn{
			queryRowFunc: func(_ context.Context, sql string, args ...any) ingest.Row {
				gotArg = args[0]
				return &mockRow{scanFunc: func(dest ...any) error {
					*dest[0].(*bool) = want
					return nil
				}}
			},
		}

		exists, err := manager.New().Exists(context.Background(), conn, "YellowTaxi")

		require.NoError(t, err)
		assert.Equal(t, want, exists)
		assert.Equal(t, `"YellowTaxi"`, gotArg, "case must survive name resolution")
	}
}

func TestManager_Errors(t *testing.T) {
	failing := &mockDBConn{
		execFunc: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("permission denied for schema public")
		},
		queryRowFunc: func(context.Context, string, ...any) ingest.Row {
			return &mockRow{scanFunc: func(...any) error { return errors.New("connection lost") }}
		},
	}
	m := manager.New()
	ctx := context.Background()

	_, err := m.Exists(ctx, failing, "t")
	assert.ErrorIs(t, err, ingest.ErrWriteFailed)
	assert.ErrorContains(t, err, "connection lost")

	err = m.Drop(ctx, failing, "t")
	assert.ErrorIs(t, err, ingest.ErrWriteFailed)

	err = m.Create(ctx, failing, `CREATE TABLE "t" ("a" text)`)
	assert.ErrorIs(t, err, ingest.ErrWriteFailed)
	assert.ErrorContains(t, err, "permission denied")
}

func TestManager_Lifecycle_Integration(t *testing.T) {
	connString := testinfra.RequireDatabase(t)
	config := testinfra.ConnectionConfig(t, connString)

	ctx := context.Background()
	conn, err := db.NewStandardConnector(&config).Connect(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)

	m := manager.New()
	const table = "Manager Lifecycle"

	require.NoError(t, m.Drop(ctx, conn, table))

	exists, err := m.Exists(ctx, conn, table)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.Create(ctx, conn, `CREATE TABLE "Manager Lifecycle" ("index" bigint)`))

	exists, err = m.Exists(ctx, conn, table)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, m.Drop(ctx, conn, table))
	require.NoError(t, m.Drop(ctx, conn, table), "dropping a missing table is not an error")

	exists, err = m.Exists(ctx, conn, table)
	require.NoError(t, err)
	assert.False(t, exists)
}
