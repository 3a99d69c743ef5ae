package db

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/pgingest/pkg/ingest"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
// The token is used as the password when connecting to cloud-hosted PostgreSQL.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for messages. Never includes secrets.
	String() string
}

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token only has to be valid at connect time; an established session
// outlives it.
type TokenBasedConnector struct {
	config        *ingest.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *ingest.ConnectionConfig, tokenProvider TokenProvider, providerName string) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
	}
}

// Connect acquires a token and opens a single connection with it as the password.
func (c *TokenBasedConnector) Connect(ctx context.Context) (ingest.DBConn, error) {
	token, _, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to acquire %s token from %s: %w",
			ingest.ErrConnectionFailed, c.providerName, c.tokenProvider, err)
	}

	withToken := *c.config
	withToken.Password = token

	return openConn(ctx, c.config, BuildConnectionString(&withToken), nil, nil)
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *ingest.ConnectionConfig) (ingest.Connector, error) {
	provider, err := NewAWSIAMTokenProvider(redactedAddress(config), config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}
	return NewTokenBasedConnector(config, provider, "AWS IAM"), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// Explicit tenant, client and secret select Service Principal auth; anything less
// falls back to the DefaultAzureCredential chain.
func newAzureConnector(config *ingest.ConnectionConfig) (ingest.Connector, error) {
	var (
		provider TokenProvider
		err      error
	)

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		provider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
	} else {
		provider, err = NewAzureDefaultCredentialProvider()
	}
	if err != nil {
		return nil, err
	}

	return NewTokenBasedConnector(config, provider, "Azure"), nil
}
