package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

// StandardConnector implements the Connector interface for username/password
// authentication. It opens exactly one connection per Connect call.
type StandardConnector struct {
	config *ingest.ConnectionConfig
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *ingest.ConnectionConfig) *StandardConnector {
	return &StandardConnector{config: config}
}

// Connect opens and pings a single connection.
func (c *StandardConnector) Connect(ctx context.Context) (ingest.DBConn, error) {
	return openConn(ctx, c.config, BuildConnectionString(c.config), nil, nil)
}

// NewConnector creates the Connector matching the ConnectionConfig's AuthMethod.
func NewConnector(config *ingest.ConnectionConfig) (ingest.Connector, error) {
	switch config.AuthMethod {
	case ingest.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case ingest.AuthMethodAWSIAM:
		return newAWSConnector(config)
	case ingest.AuthMethodGoogleIAM:
		return newGoogleConnector(config)
	case ingest.AuthMethodAzureEntraID:
		return newAzureConnector(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, ingest.ErrUnsupportedAuthMethod)
	}
}

// openConn parses connStr, connects and pings. dial replaces the network dialer
// when non-nil; release runs when the connection is closed, or right away if
// connecting fails.
func openConn(ctx context.Context, config *ingest.ConnectionConfig, connStr string, dial pgconn.DialFunc, release func() error) (ingest.DBConn, error) {
	fail := func(err error) (ingest.DBConn, error) {
		if release != nil {
			release() //nolint:errcheck
		}
		return nil, fmt.Errorf("%w: %w", ingest.ErrConnectionFailed, err)
	}

	connConfig, err := pgx.ParseConfig(connStr)
	if err != nil {
		return fail(fmt.Errorf("failed to parse connection config: %w", err))
	}
	if dial != nil {
		connConfig.DialFunc = dial
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return fail(wrapConnectionError(err, config))
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx) //nolint:errcheck
		return fail(wrapConnectionError(err, config))
	}

	return NewConnAdapter(conn, release), nil
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
func wrapConnectionError(err error, config *ingest.ConnectionConfig) error {
	errStr := strings.ToLower(err.Error())
	addr := redactedAddress(config)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong --host or --port

Original error: %w`, addr, config.Host, config.Port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

Original error: %w`, config.Host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for user "%s" on database "%s"

Possible causes:
  - Wrong --password
  - Wrong --user
  - For --auth aws-iam or azure, the cloud identity is not mapped to this database role

Original error: %w`, config.Username, config.Database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

To create it:
  createdb -h %s -p %d -U %s %s

Original error: %w`, config.Database, config.Host, config.Port, config.Username, config.Database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets

Original error: %w`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is disable
  - Server does not support SSL but --sslmode is require

Original error: %w`, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}
