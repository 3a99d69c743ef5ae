package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/pgingest/pkg/ingest"
)

// ConnectorFactory builds the Connector for a connection's auth method.
type ConnectorFactory func(*ingest.ConnectionConfig) (ingest.Connector, error)

// IngestService implements the ingest.Runner interface: fetch, then connect,
// then load. Strictly sequential; one connection per run.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type IngestService struct {
	connectorFactory ConnectorFactory
	fetcher          ingest.Fetcher
	loader           ingest.Loader
	logger           ingest.Logger
}

// NewIngestService creates a new IngestService with all dependencies injected.
// Panics on nil dependencies; those are wiring mistakes, not runtime conditions.
func NewIngestService(
	connectorFactory ConnectorFactory,
	fetcher ingest.Fetcher,
	loader ingest.Loader,
	logger ingest.Logger,
) *IngestService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &IngestService{
		connectorFactory: connectorFactory,
		fetcher:          fetcher,
		loader:           loader,
		logger:           logger,
	}
}

// Run executes one ingest run. A fetch failure returns before any connection
// is attempted; a load failure leaves already written batches in place.
func (s *IngestService) Run(ctx context.Context, cfg ingest.Config) (ingest.RunResult, error) {
	start := time.Now()
	var result ingest.RunResult

	if err := cfg.Validate(); err != nil {
		return result, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	fetched, err := s.fetcher.Fetch(ctx, cfg.SourceURL, cfg.StagingPath)
	if err != nil {
		return result, err
	}
	result.Fetch = fetched
	s.logger.Verbose("Fetched %d rows (%d bytes, sha256 %s) into %s", fetched.Rows, fetched.Bytes, fetched.SHA256, fetched.StagingPath)

	connector, err := s.connectorFactory(&cfg.Connection)
	if err != nil {
		return result, fmt.Errorf("%w: failed to create connector: %w", ingest.ErrConnectionFailed, err)
	}

	s.logger.Verbose("Connecting to %s (auth: %s)", target(&cfg.Connection), cfg.Connection.AuthMethod)
	conn, err := connector.Connect(ctx)
	if err != nil {
		return result, err
	}
	defer func() {
		if cerr := conn.Close(context.Background()); cerr != nil {
			s.logger.Verbose("Closing connection: %v", cerr)
		}
	}()

	loaded, err := s.loader.Load(ctx, conn, cfg.LoadOptions())
	result.Load = loaded
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	s.logger.Verbose("Loaded %d rows in %d batches into %s in %s", loaded.Rows, loaded.Batches, loaded.Table, result.Duration.Round(time.Millisecond))
	return result, nil
}

func target(c *ingest.ConnectionConfig) string {
	if c.AuthMethod == ingest.AuthMethodGoogleIAM {
		return fmt.Sprintf("%s/%s", c.GoogleInstance, c.Database)
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
}

var _ ingest.Runner = (*IngestService)(nil)
