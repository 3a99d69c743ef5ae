package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vvka-141/pgingest/internal/config"
	"github.com/vvka-141/pgingest/internal/db"
	"github.com/vvka-141/pgingest/internal/db/manager"
	"github.com/vvka-141/pgingest/internal/fetch"
	"github.com/vvka-141/pgingest/internal/loader"
	"github.com/vvka-141/pgingest/internal/logging"
	"github.com/vvka-141/pgingest/internal/services"
	"github.com/vvka-141/pgingest/internal/ui"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

const longDescription = `pgingest downloads a Parquet dataset, stages it as CSV and loads it into a
PostgreSQL table in fixed-size batches.

The table schema is inferred from the first batch. By default an existing
table is dropped and recreated (--if-exists replace); use --if-exists append
or --if-exists fail to keep it. Datetime columns (--datetime-columns) are
stored as timestamps; a malformed value aborts the run, leaving the batches
written before it in place.

Settings may also come from a YAML run file (--config) or a .env file
(--env-file, keys PGINGEST_<FLAG>). Precedence: flag > --config > --env-file >
default. Without either file no environment variable is consulted.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied the table replace
  13 - Table DDL or batch write failed
  14 - Source could not be fetched or decoded
  15 - Malformed datetime value
  16 - Batch incompatible with the table schema
  17 - Table exists and --if-exists is fail`

const example = `  pgingest --user root --password root --host localhost --port 5432 --db ny_taxi \
    --table_name yellow_taxi_data \
    --url https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2021-01.parquet

  pgingest --config run.yaml --password "$PGPASSWORD"`

// ingestFlagValues holds the values bound to the root command's flags.
type ingestFlagValues struct {
	user, password, host, database, sslMode, auth string
	port                                          int
	connectTimeout                                time.Duration

	awsRegion, googleInstance                       string
	azureTenantID, azureClientID, azureClientSecret string

	tableName, url, stagingFile string
	batchSize                   int
	ifExists                    string
	confirm                     bool
	datetimeColumns             []string
	indexColumn                 string

	configFile, envFile string
	logFormat           string
	timeout             time.Duration
	verbose             bool
}

// fileOnlyFlags cannot be supplied by a run file or env file.
var fileOnlyFlags = map[string]bool{"config": true, "env-file": true, "help": true}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd, _ := newRootCmdWithFlags()
	return cmd
}

func newRootCmdWithFlags() (*cobra.Command, *ingestFlagValues) {
	var flags ingestFlagValues

	cmd := &cobra.Command{
		Use:          "pgingest",
		Short:        "Load a Parquet dataset into a PostgreSQL table",
		Long:         longDescription,
		Example:      example,
		SilenceUsage: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unexpected arguments %q", ingest.ErrUsage, args)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, &flags)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ingest.ErrUsage, err)
	})

	f := cmd.Flags()

	// Connection flags
	f.StringVar(&flags.user, "user", "", "PostgreSQL user (required)")
	f.StringVar(&flags.password, "password", "",
		"PostgreSQL password (required with --auth standard)\n"+
			"Prefer --env-file or --config over typing it on the command line")
	f.StringVar(&flags.host, "host", "", "PostgreSQL server host (required)")
	f.IntVar(&flags.port, "port", 0, "PostgreSQL server port (required)")
	f.StringVar(&flags.database, "db", "", "Database name (required)")
	f.StringVar(&flags.sslMode, "sslmode", ingest.DefaultSSLMode,
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full")
	f.DurationVar(&flags.connectTimeout, "connect-timeout", 0,
		"Connection establishment timeout, 0 for the driver default (e.g. 10s)")
	f.StringVar(&flags.auth, "auth", "standard",
		"Authentication method: standard|aws-iam|google-iam|azure")
	f.StringVar(&flags.awsRegion, "aws-region", "", "AWS region for RDS IAM authentication")
	f.StringVar(&flags.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name (project:region:instance)")
	f.StringVar(&flags.azureTenantID, "azure-tenant-id", "", "Azure AD tenant/directory ID")
	f.StringVar(&flags.azureClientID, "azure-client-id", "", "Azure AD application/client ID")
	f.StringVar(&flags.azureClientSecret, "azure-client-secret", "",
		"Azure AD client secret (with tenant and client ID selects Service Principal auth)")

	// Run flags
	f.StringVar(&flags.tableName, "table_name", "", "Destination table (required)")
	f.StringVar(&flags.url, "url", "",
		"Parquet dataset location: http(s)://, file://, s3://, gs:// or a local path (required)")
	f.StringVar(&flags.stagingFile, "staging-file", ingest.DefaultStagingFile,
		"Staging CSV path, overwritten on every run")
	f.IntVar(&flags.batchSize, "batch-size", ingest.DefaultBatchSize, "Rows per batch")
	f.StringVar(&flags.ifExists, "if-exists", string(ingest.IfExistsReplace),
		"What to do when the table exists: replace|append|fail")
	f.BoolVar(&flags.confirm, "confirm", false,
		"Ask before dropping an existing table (needs an interactive terminal)")
	f.StringSliceVar(&flags.datetimeColumns, "datetime-columns", ingest.DefaultDatetimeColumns(),
		"Columns stored as timestamp without time zone")
	f.StringVar(&flags.indexColumn, "index-column", ingest.DefaultIndexColumn,
		"Column holding the zero-based row ordinal; empty disables it")

	// Ambient flags
	f.StringVar(&flags.configFile, "config", "", "YAML run file supplying any of these flags")
	f.StringVar(&flags.envFile, "env-file", "", ".env file with "+config.EnvPrefix+"<FLAG> keys")
	f.StringVar(&flags.logFormat, "log-format", string(logging.FormatConsole), "Log format: console|json")
	f.DurationVar(&flags.timeout, "timeout", 0, "Whole-run timeout, 0 for none (e.g. 30m, 1h)")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newVersionCmd())
	return cmd, &flags
}

// applyConfigFiles fills flags not given on the command line from --config
// and --env-file. It returns the names of the flags it filled.
func applyConfigFiles(fs *pflag.FlagSet, flags *ingestFlagValues) ([]string, error) {
	var yamlValues, envValues config.Values

	if flags.configFile != "" {
		runFile, err := config.Load(flags.configFile)
		if err != nil {
			return nil, err
		}
		yamlValues = runFile.Values()
	}

	if flags.envFile != "" {
		values, err := config.LoadEnvFile(flags.envFile, settableFlags(fs))
		if err != nil {
			return nil, err
		}
		envValues = values
	}

	return config.Apply(fs, config.Merge(yamlValues, envValues))
}

func settableFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.VisitAll(func(f *pflag.Flag) {
		if !fileOnlyFlags[f.Name] {
			names = append(names, f.Name)
		}
	})
	sort.Strings(names)
	return names
}

// buildIngestConfig maps flag values to an ingest.Config. Presence checks are
// left to Config.Validate so that every missing parameter is reported at once.
func buildIngestConfig(flags *ingestFlagValues) (ingest.Config, error) {
	authMethod, err := ingest.ParseAuthMethod(flags.auth)
	if err != nil {
		return ingest.Config{}, err
	}

	ifExists, err := ingest.ParseIfExistsMode(flags.ifExists)
	if err != nil {
		return ingest.Config{}, err
	}

	datetimeColumns := make([]string, 0, len(flags.datetimeColumns))
	for _, c := range flags.datetimeColumns {
		if c = strings.TrimSpace(c); c != "" {
			datetimeColumns = append(datetimeColumns, c)
		}
	}

	return ingest.Config{
		Connection: ingest.ConnectionConfig{
			Host:              flags.host,
			Port:              flags.port,
			Database:          flags.database,
			Username:          flags.user,
			Password:          flags.password,
			SSLMode:           flags.sslMode,
			AuthMethod:        authMethod,
			AppName:           ingest.DefaultApplicationName,
			ConnectTimeout:    flags.connectTimeout,
			AWSRegion:         flags.awsRegion,
			GoogleInstance:    flags.googleInstance,
			AzureTenantID:     flags.azureTenantID,
			AzureClientID:     flags.azureClientID,
			AzureClientSecret: flags.azureClientSecret,
		},
		TableName:       flags.tableName,
		SourceURL:       flags.url,
		StagingPath:     flags.stagingFile,
		BatchSize:       flags.batchSize,
		IfExists:        ifExists,
		DatetimeColumns: datetimeColumns,
		IndexColumn:     strings.TrimSpace(flags.indexColumn),
		Timeout:         flags.timeout,
		Verbose:         flags.verbose,
	}, nil
}

func runIngest(cmd *cobra.Command, flags *ingestFlagValues) error {
	applied, err := applyConfigFiles(cmd.Flags(), flags)
	if err != nil {
		return err
	}

	format, err := logging.ParseFormat(flags.logFormat)
	if err != nil {
		return fmt.Errorf("%w: %w", ingest.ErrInvalidConfig, err)
	}

	logger := logging.New(logging.Options{
		Verbose: flags.verbose,
		Format:  format,
		Output:  cmd.ErrOrStderr(),
		RunID:   uuid.NewString(),
	})
	if len(applied) > 0 {
		logger.Verbose("settings from config files: %s", strings.Join(applied, ", "))
	}

	cfg, err := buildIngestConfig(flags)
	if err != nil {
		return err
	}

	// Select approver implementation based on --confirm
	var approver ingest.Approver = ui.NewAutoApprover()
	if flags.confirm {
		approver = ui.NewInteractiveApprover()
	}

	svc := services.NewIngestService(
		db.NewConnector,
		fetch.New(logger),
		loader.New(manager.New(), approver, logger),
		logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := svc.Run(ctx, cfg); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Error("interrupted, run cancelled")
		}
		return err
	}
	return nil
}
