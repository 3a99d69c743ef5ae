package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

type mockFetcher struct {
	result   ingest.FetchResult
	err      error
	calls    int
	deadline time.Time
}

func (m *mockFetcher) Fetch(ctx context.Context, _, stagingPath string) (ingest.FetchResult, error) {
	m.calls++
	m.deadline, _ = ctx.Deadline()
	r := m.result
	r.StagingPath = stagingPath
	return r, m.err
}

type mockConn struct {
	closed int
}

func (m *mockConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (m *mockConn) QueryRow(context.Context, string, ...any) ingest.Row { return nil }
func (m *mockConn) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *mockConn) Close(context.Context) error {
	m.closed++
	return nil
}

type mockConnector struct {
	conn  *mockConn
	err   error
	calls int
}

func (m *mockConnector) Connect(context.Context) (ingest.DBConn, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.conn, nil
}

type mockLoader struct {
	result ingest.LoadResult
	err    error
	opts   ingest.LoadOptions
	calls  int
}

func (m *mockLoader) Load(_ context.Context, _ ingest.DBConn, opts ingest.LoadOptions) (ingest.LoadResult, error) {
	m.calls++
	m.opts = opts
	return m.result, m.err
}
