package ingest

import "context"

// Connector establishes the run's database connection.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM tokens, Cloud SQL dialer).
type Connector interface {
	// Connect opens one connection to the database.
	// The returned connection must be closed by the caller when done.
	Connect(ctx context.Context) (DBConn, error)
}
