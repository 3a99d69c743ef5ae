// Package fetch downloads a Parquet dataset and stages it as a CSV file.
//
// A Fetcher resolves the source URL to an Opener by scheme (http, https, file,
// s3, gs, or a bare filesystem path), copies the bytes to a temporary file while
// computing their SHA-256, then decodes the Parquet file row group by row group
// and writes one CSV record per row. The staging file is the only artifact that
// outlives a Fetch call.
//
// Null and empty values both stage as an empty field. A CRLF inside a text
// value is written as is but read back by encoding/csv as LF, so such values
// reach the table with bare newlines.
package fetch
