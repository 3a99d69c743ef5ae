package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config contains all parameters needed for one ingest run.
type Config struct {
	// Connection identifies the target database
	Connection ConnectionConfig

	// TableName is the destination table
	TableName string

	// SourceURL locates the Parquet dataset (http, https, file, s3, gs or a local path)
	SourceURL string

	// StagingPath is where the row-oriented CSV staging artifact is written
	StagingPath string

	// BatchSize is the number of rows per database write
	BatchSize int

	// IfExists selects what happens to an existing destination table
	IfExists IfExistsMode

	// DatetimeColumns are coerced from text to timestamps in every batch
	DatetimeColumns []string

	// IndexColumn receives the zero-based row ordinal; empty disables it
	IndexColumn string

	// Timeout bounds the whole run; zero means unbounded
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the Config has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Connection.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.TableName == "" {
		errs = append(errs, fmt.Errorf("table name is required: %w", ErrInvalidConfig))
	}

	if c.SourceURL == "" {
		errs = append(errs, fmt.Errorf("source URL is required: %w", ErrInvalidConfig))
	}

	if c.StagingPath == "" {
		errs = append(errs, fmt.Errorf("staging path is required: %w", ErrInvalidConfig))
	}

	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d: %w", c.BatchSize, ErrInvalidConfig))
	}

	if !c.IfExists.IsValid() {
		errs = append(errs, fmt.Errorf("unknown if-exists mode %q: %w", c.IfExists, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if c.IndexColumn != "" {
		for _, col := range c.DatetimeColumns {
			if col == c.IndexColumn {
				errs = append(errs, fmt.Errorf("index column %q is also a datetime column: %w", col, ErrInvalidConfig))
			}
		}
	}

	return errors.Join(errs...)
}

// LoadOptions returns the loader's view of the configuration.
func (c *Config) LoadOptions() LoadOptions {
	return LoadOptions{
		Table:           c.TableName,
		StagingPath:     c.StagingPath,
		BatchSize:       c.BatchSize,
		IfExists:        c.IfExists,
		DatetimeColumns: c.DatetimeColumns,
		IndexColumn:     c.IndexColumn,
	}
}

// ConnectionConfig represents the database connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	AppName        string
	ConnectTimeout time.Duration

	// AWSRegion is required for AuthMethodAWSIAM
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance)
	GoogleInstance string

	// Azure Entra ID parameters. If all three are provided, Service Principal
	// authentication is used; otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks that the parameters required by the auth method are present.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	if !c.AuthMethod.IsValid() {
		return fmt.Errorf("auth method %v: %w", c.AuthMethod, ErrUnsupportedAuthMethod)
	}

	if c.Username == "" {
		errs = append(errs, fmt.Errorf("user is required: %w", ErrInvalidConfig))
	}
	if c.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
	}

	switch c.AuthMethod {
	case AuthMethodStandard:
		if c.Password == "" {
			errs = append(errs, fmt.Errorf("password is required: %w", ErrInvalidConfig))
		}
	case AuthMethodAWSIAM:
		if c.AWSRegion == "" {
			errs = append(errs, fmt.Errorf("AWS IAM auth requires a region: %w", ErrInvalidConfig))
		}
	case AuthMethodGoogleIAM:
		if c.GoogleInstance == "" {
			errs = append(errs, fmt.Errorf("Google Cloud SQL IAM auth requires an instance (project:region:instance): %w", ErrInvalidConfig))
		}
	}

	if c.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("connect timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if c.AuthMethod != AuthMethodGoogleIAM {
		if c.Host == "" {
			errs = append(errs, fmt.Errorf("host is required: %w", ErrInvalidConfig))
		}
		if c.Port <= 0 || c.Port > 65535 {
			errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d: %w", c.Port, ErrInvalidConfig))
		}
	}

	return errors.Join(errs...)
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the --auth flag value to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws-iam", "aws":
		return AuthMethodAWSIAM, nil
	case "google-iam", "google", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("auth method %q (want standard, aws-iam, google-iam or azure): %w", s, ErrUnsupportedAuthMethod)
	}
}

// IfExistsMode selects the treatment of an existing destination table.
type IfExistsMode string

const (
	// IfExistsReplace drops and recreates the table from the first batch's schema.
	IfExistsReplace IfExistsMode = "replace"

	// IfExistsAppend keeps an existing table and appends to it.
	IfExistsAppend IfExistsMode = "append"

	// IfExistsFail aborts the run when the table already exists.
	IfExistsFail IfExistsMode = "fail"
)

// IsValid returns true for the three defined modes.
func (m IfExistsMode) IsValid() bool {
	switch m {
	case IfExistsReplace, IfExistsAppend, IfExistsFail:
		return true
	}
	return false
}

// ParseIfExistsMode maps the --if-exists flag value to a mode.
func ParseIfExistsMode(s string) (IfExistsMode, error) {
	m := IfExistsMode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return IfExistsReplace, nil
	}
	if !m.IsValid() {
		return "", fmt.Errorf("if-exists mode %q (want replace, append or fail): %w", s, ErrInvalidConfig)
	}
	return m, nil
}

// LoadOptions configures one Loader.Load call.
type LoadOptions struct {
	Table           string
	StagingPath     string
	BatchSize       int
	IfExists        IfExistsMode
	DatetimeColumns []string
	IndexColumn     string
}

// FetchResult describes the staged dataset.
type FetchResult struct {
	StagingPath string
	Columns     []string
	Rows        int64
	Bytes       int64
	SHA256      string
}

// LoadResult describes what was written to the destination table.
type LoadResult struct {
	Table   string
	Batches int
	Rows    int64
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	Fetch    FetchResult
	Load     LoadResult
	Duration time.Duration
}
