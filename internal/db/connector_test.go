package db

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgingest/internal/testinfra"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

// MockTokenProvider is a test implementation of TokenProvider.
type MockTokenProvider struct {
	Token     string
	ExpiresOn time.Time
	Err       error
	Calls     int
}

func (m *MockTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	m.Calls++
	if m.Err != nil {
		return "", time.Time{}, m.Err
	}
	return m.Token, m.ExpiresOn, nil
}

func (m *MockTokenProvider) String() string {
	return "MockTokenProvider"
}

// closedPort returns a local TCP port nothing listens on.
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestNewConnector(t *testing.T) {
	tests := []struct {
		name    string
		config  ingest.ConnectionConfig
		want    any
		wantErr string
	}{
		{
			name:   "standard",
			config: ingest.ConnectionConfig{Host: "localhost", Port: 5432, Username: "root", AuthMethod: ingest.AuthMethodStandard},
			want:   &StandardConnector{},
		},
		{
			name:   "aws",
			config: ingest.ConnectionConfig{Host: "db.rds.amazonaws.com", Port: 5432, Username: "root", AWSRegion: "eu-west-1", AuthMethod: ingest.AuthMethodAWSIAM},
			want:   &TokenBasedConnector{},
		},
		{
			name:    "aws without region",
			config:  ingest.ConnectionConfig{Host: "db.rds.amazonaws.com", Port: 5432, Username: "root", AuthMethod: ingest.AuthMethodAWSIAM},
			wantErr: "region",
		},
		{
			name:   "google",
			config: ingest.ConnectionConfig{Username: "root", GoogleInstance: "proj:europe-west1:taxi", AuthMethod: ingest.AuthMethodGoogleIAM},
			want:   &GoogleCloudSQLConnector{},
		},
		{
			name:    "google without instance",
			config:  ingest.ConnectionConfig{Username: "root", AuthMethod: ingest.AuthMethodGoogleIAM},
			wantErr: "--google-instance",
		},
		{
			name:   "azure service principal",
			config: ingest.ConnectionConfig{AuthMethod: ingest.AuthMethodAzureEntraID, AzureTenantID: "t", AzureClientID: "c", AzureClientSecret: "s"},
			want:   &TokenBasedConnector{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connector, err := NewConnector(&tt.config)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, connector)
		})
	}
}

func TestNewConnector_UnknownAuthMethod(t *testing.T) {
	_, err := NewConnector(&ingest.ConnectionConfig{AuthMethod: ingest.AuthMethod(42)})
	assert.ErrorIs(t, err, ingest.ErrUnsupportedAuthMethod)
}

func TestStandardConnector_ConnectionRefused(t *testing.T) {
	config := &ingest.ConnectionConfig{
		Host: "127.0.0.1", Port: closedPort(t), Database: "ny_taxi",
		Username: "root", Password: "root", SSLMode: "disable",
		ConnectTimeout: 5 * time.Second,
	}

	_, err := NewStandardConnector(config).Connect(context.Background())

	require.ErrorIs(t, err, ingest.ErrConnectionFailed)
	assert.Equal(t, ingest.ExitConnectionError, ingest.ExitCodeForError(err))
	assert.NotContains(t, err.Error(), "root:root", "credentials must not leak into messages")
}

func TestTokenBasedConnector_TokenFailure(t *testing.T) {
	provider := &MockTokenProvider{Err: errors.New("no credentials in chain")}
	config := &ingest.ConnectionConfig{Host: "127.0.0.1", Port: closedPort(t), Database: "d", Username: "u"}

	_, err := NewTokenBasedConnector(config, provider, "Azure").Connect(context.Background())

	require.ErrorIs(t, err, ingest.ErrConnectionFailed)
	assert.Contains(t, err.Error(), "failed to acquire Azure token from MockTokenProvider")
	assert.Contains(t, err.Error(), "no credentials in chain")
	assert.Equal(t, 1, provider.Calls)
}

func TestTokenBasedConnector_DoesNotMutateConfig(t *testing.T) {
	provider := &MockTokenProvider{Token: "short-lived-token", ExpiresOn: time.Now().Add(time.Hour)}
	config := &ingest.ConnectionConfig{
		Host: "127.0.0.1", Port: closedPort(t), Database: "d", Username: "u",
		SSLMode: "disable", ConnectTimeout: 5 * time.Second,
	}

	_, err := NewTokenBasedConnector(config, provider, "AWS IAM").Connect(context.Background())

	require.ErrorIs(t, err, ingest.ErrConnectionFailed)
	assert.Empty(t, config.Password)
	assert.NotContains(t, err.Error(), "short-lived-token")
}

type fakeCredential struct {
	scopes []string
}

func (f *fakeCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.scopes = opts.Scopes
	return azcore.AccessToken{Token: "entra-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func TestAzureTokenProvider_RequestsPostgresScope(t *testing.T) {
	cred := &fakeCredential{}
	provider := NewAzureTokenProvider(cred, "fake")

	token, expires, err := provider.GetToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "entra-token", token)
	assert.True(t, expires.After(time.Now()))
	assert.Equal(t, []string{AzurePostgreSQLScope}, cred.scopes)
	assert.Equal(t, "fake", provider.String())
}

func TestNewAzureServicePrincipalProvider_RequiresAllParams(t *testing.T) {
	for _, args := range [][3]string{{"", "c", "s"}, {"t", "", "s"}, {"t", "c", ""}} {
		_, err := NewAzureServicePrincipalProvider(args[0], args[1], args[2])
		assert.Error(t, err, "%v", args)
	}
}

func TestNewAWSIAMTokenProvider_Validation(t *testing.T) {
	_, err := NewAWSIAMTokenProvider("", "eu-west-1", "u")
	assert.Error(t, err)
	_, err = NewAWSIAMTokenProvider("h:5432", "", "u")
	assert.Error(t, err)
	_, err = NewAWSIAMTokenProvider("h:5432", "eu-west-1", "")
	assert.Error(t, err)

	p, err := NewAWSIAMTokenProvider("h:5432", "eu-west-1", "u")
	require.NoError(t, err)
	assert.False(t, strings.Contains(p.String(), "password"))
}

func TestStandardConnector_Integration(t *testing.T) {
	connString := testinfra.RequireDatabase(t)
	config := testinfra.ConnectionConfig(t, connString)
	config.AppName = "pgingest-test"

	ctx := context.Background()
	conn, err := NewStandardConnector(&config).Connect(ctx)
	require.NoError(t, err)

	_, err = conn.Exec(ctx, `DROP TABLE IF EXISTS "conn_adapter_test"`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `CREATE TABLE "conn_adapter_test" (id bigint, name text)`)
	require.NoError(t, err)

	n, err := conn.CopyFrom(ctx, pgx.Identifier{"conn_adapter_test"}, []string{"id", "name"},
		pgx.CopyFromRows([][]any{{int64(1), "a"}, {int64(2), nil}}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT count(*) FROM "conn_adapter_test"`).Scan(&count))
	assert.Equal(t, 2, count)

	var appName string
	require.NoError(t, conn.QueryRow(ctx, `SELECT current_setting('application_name')`).Scan(&appName))
	assert.Equal(t, "pgingest-test", appName)

	_, err = conn.Exec(ctx, `DROP TABLE "conn_adapter_test"`)
	require.NoError(t, err)
	require.NoError(t, conn.Close(ctx))
}

func TestConnAdapter_CloseRunsReleaseHook(t *testing.T) {
	connString := testinfra.RequireDatabase(t)

	ctx := context.Background()
	raw, err := pgx.Connect(ctx, connString)
	require.NoError(t, err)

	released := 0
	adapter := NewConnAdapter(raw, func() error {
		released++
		return nil
	})

	require.NoError(t, adapter.Close(ctx))
	assert.Equal(t, 1, released)
	assert.True(t, raw.IsClosed())
}
