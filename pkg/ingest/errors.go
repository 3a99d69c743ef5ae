package ingest

import (
	"errors"
	"strings"
)

// Sentinel errors for the failure classes of an ingest run.
// Callers distinguish them with errors.Is().
//
// Example usage:
//
//	_, err := svc.Run(ctx, cfg)
//	if errors.Is(err, ingest.ErrTransformFailed) {
//	    // a datetime value in the source could not be parsed
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUsage indicates the command line could not be parsed.
	ErrUsage = errors.New("usage error")

	// ErrFetchFailed indicates the source dataset could not be retrieved,
	// decoded or staged. No database work happens after it.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrTransformFailed indicates a datetime column held a malformed value
	// or an expected datetime column was missing.
	ErrTransformFailed = errors.New("transform failed")

	// ErrSchemaMismatch indicates a batch is not compatible with the table
	// schema derived from the first batch.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrWriteFailed indicates a DDL statement or a batch write failed.
	ErrWriteFailed = errors.New("write failed")

	// ErrTableExists indicates the destination table exists and the
	// if-exists mode is "fail".
	ErrTableExists = errors.New("table already exists")

	// ErrApprovalDenied indicates the operator denied the table replace.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrFetchFailed):
		return ExitFetchFailed
	case errors.Is(err, ErrTransformFailed):
		return ExitTransformFailed
	case errors.Is(err, ErrSchemaMismatch):
		return ExitSchemaMismatch
	case errors.Is(err, ErrTableExists):
		return ExitTableExists
	case errors.Is(err, ErrWriteFailed):
		return ExitWriteFailed
	}

	// Unwrapped driver errors that still look like connectivity problems
	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
