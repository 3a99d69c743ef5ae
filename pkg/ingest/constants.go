package ingest

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Run completed
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (unknown flag, bad flag value)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or missing parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // Operator denied the table replace
	ExitWriteFailed     = 13 // DDL or batch write failed
	ExitFetchFailed     = 14 // Source could not be fetched or decoded
	ExitTransformFailed = 15 // Malformed datetime value
	ExitSchemaMismatch  = 16 // Batch incompatible with the table schema
	ExitTableExists     = 17 // Table exists and --if-exists=fail
)

const (
	// DefaultBatchSize bounds the number of rows held in memory and written
	// per COPY.
	DefaultBatchSize = 100000

	// DefaultStagingFile is the staging CSV written into the working directory.
	DefaultStagingFile = "output.csv"

	// DefaultIndexColumn holds the zero-based row ordinal of each record.
	DefaultIndexColumn = "index"

	// DefaultSSLMode matches libpq's default.
	DefaultSSLMode = "prefer"

	// DefaultApplicationName is reported to PostgreSQL as application_name.
	DefaultApplicationName = "pgingest"
)

// DefaultDatetimeColumns returns the columns coerced to timestamps when the
// caller does not configure any: the NYC TLC yellow taxi pickup and dropoff times.
func DefaultDatetimeColumns() []string {
	return []string{"tpep_pickup_datetime", "tpep_dropoff_datetime"}
}
