package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/vvka-141/pgingest/internal/checksum"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

// Opener opens a source location for reading.
type Opener interface {
	Open(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, u *url.URL) (io.ReadCloser, error)

// Open calls f(ctx, u).
func (f OpenerFunc) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	return f(ctx, u)
}

// Fetcher implements ingest.Fetcher.
type Fetcher struct {
	logger  ingest.Logger
	openers map[string]Opener
	tempDir string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for http and https sources.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		o := &httpOpener{client: c}
		f.openers["http"] = o
		f.openers["https"] = o
	}
}

// WithOpener registers or replaces the opener for a URL scheme.
func WithOpener(scheme string, o Opener) Option {
	return func(f *Fetcher) {
		f.openers[scheme] = o
	}
}

// WithTempDir sets the directory for the temporary download. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(f *Fetcher) {
		f.tempDir = dir
	}
}

// New creates a Fetcher with the built-in openers.
func New(logger ingest.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		panic("logger cannot be nil")
	}

	web := &httpOpener{client: http.DefaultClient}
	f := &Fetcher{
		logger: logger,
		openers: map[string]Opener{
			"http":  web,
			"https": web,
			"file":  fileOpener{},
			"s3":    s3Opener{},
			"gs":    gcsOpener{},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads sourceURL and writes the staging CSV to stagingPath.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, stagingPath string) (ingest.FetchResult, error) {
	u := parseSource(sourceURL)

	opener, ok := f.openers[u.Scheme]
	if !ok {
		return ingest.FetchResult{}, fmt.Errorf("%w: unsupported source scheme %q", ingest.ErrFetchFailed, u.Scheme)
	}

	f.logger.Verbose("Downloading %s", u.Redacted())

	src, err := opener.Open(ctx, u)
	if err != nil {
		return ingest.FetchResult{}, fmt.Errorf("%w: open %s: %w", ingest.ErrFetchFailed, u.Redacted(), err)
	}

	tmp, err := os.CreateTemp(f.tempDir, "pgingest-*.parquet")
	if err != nil {
		src.Close()
		return ingest.FetchResult{}, fmt.Errorf("%w: create temp file: %w", ingest.ErrFetchFailed, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	sum, size, err := checksum.Copy(tmp, src)
	src.Close()
	if err != nil {
		return ingest.FetchResult{}, fmt.Errorf("%w: download %s: %w", ingest.ErrFetchFailed, u.Redacted(), err)
	}

	f.logger.Verbose("Downloaded %d bytes (sha256 %s)", size, sum)

	result := ingest.FetchResult{
		StagingPath: stagingPath,
		Bytes:       size,
		SHA256:      sum,
	}

	out, err := os.Create(stagingPath)
	if err != nil {
		return result, fmt.Errorf("%w: create staging file: %w", ingest.ErrFetchFailed, err)
	}

	columns, rows, err := writeCSV(ctx, tmp, size, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return result, fmt.Errorf("%w: stage %s: %w", ingest.ErrFetchFailed, u.Redacted(), err)
	}

	result.Columns = columns
	result.Rows = rows

	f.logger.Verbose("Staged %d rows x %d columns to %s", rows, len(columns), stagingPath)

	return result, nil
}

// parseSource treats anything without a multi-letter scheme as a local path,
// which keeps Windows drive letters out of the scheme lookup.
func parseSource(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil || len(u.Scheme) <= 1 {
		return &url.URL{Scheme: "file", Path: raw}
	}
	return u
}
