package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

// GoogleCloudSQLConnector implements the Connector interface for Google Cloud SQL
// using IAM database authentication via the Cloud SQL Go Connector.
// The dialer lives as long as the returned connection and is closed with it.
type GoogleCloudSQLConnector struct {
	config   *ingest.ConnectionConfig
	instance string
}

// NewGoogleCloudSQLConnector creates a connector for an instance connection name
// in the form project:region:instance.
func NewGoogleCloudSQLConnector(config *ingest.ConnectionConfig, instance string) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{config: config, instance: instance}
}

// Connect dials the instance through the Cloud SQL connector, which handles
// IAM authentication and TLS.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (ingest.DBConn, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Cloud SQL dialer: %w", ingest.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable", c.instance, c.config.Username, c.config.Database)
	if c.config.AppName != "" {
		dsn += " application_name=" + c.config.AppName
	}

	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}

	return openConn(ctx, c.config, dsn, dial, dialer.Close)
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *ingest.ConnectionConfig) (ingest.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance)")
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --user")
	}
	return NewGoogleCloudSQLConnector(config, config.GoogleInstance), nil
}
