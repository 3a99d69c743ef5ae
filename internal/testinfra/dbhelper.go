package testinfra

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := StartSimplePostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: PGINGEST_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("PGINGEST_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("PGINGEST_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// ConnectionConfig splits a test connection string into the flag-level parameters
// the CLI and service accept.
func ConnectionConfig(t *testing.T, connString string) ingest.ConnectionConfig {
	t.Helper()

	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		t.Fatalf("parse test connection string: %v", err)
	}

	return ingest.ConnectionConfig{
		Host:     cfg.Host,
		Port:     int(cfg.Port),
		Database: cfg.Database,
		Username: cfg.User,
		Password: cfg.Password,
		SSLMode:  "disable",
	}
}

// Connect opens a direct connection for assertions and closes it when the test ends.
func Connect(t *testing.T, connString string) *pgx.Conn {
	t.Helper()

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(func() { conn.Close(ctx) })
	return conn
}
