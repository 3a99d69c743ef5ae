package ingest

import "context"

// Fetcher retrieves a columnar dataset and stages it as a CSV file.
type Fetcher interface {
	// Fetch reads the whole dataset at sourceURL and writes it, header row
	// first, to stagingPath, replacing any previous file.
	Fetch(ctx context.Context, sourceURL, stagingPath string) (FetchResult, error)
}

// Loader writes a staged CSV file into a table in bounded batches.
type Loader interface {
	Load(ctx context.Context, conn DBConn, opts LoadOptions) (LoadResult, error)
}

// TableManager implements the lifecycle operations on the destination table.
type TableManager interface {
	// Exists reports whether the table is visible on the connection's search_path.
	Exists(ctx context.Context, conn DBConn, table string) (bool, error)

	// Drop drops the table if it exists.
	Drop(ctx context.Context, conn DBConn, table string) error

	// Create executes a CREATE TABLE statement.
	Create(ctx context.Context, conn DBConn, ddl string) error
}

// Runner executes one complete ingest run.
type Runner interface {
	Run(ctx context.Context, cfg Config) (RunResult, error)
}
