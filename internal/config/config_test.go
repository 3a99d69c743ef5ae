package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgingest/pkg/ingest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AllFields(t *testing.T) {
	path := writeFile(t, "run.yaml", `connection:
  host: myhost
  port: 5433
  user: root
  password: root
  db: ny_taxi
  sslmode: require
  connect_timeout: 15s
  auth: aws-iam
  aws_region: us-west-2

table_name: yellow_taxi_data
url: https://example.com/yellow_tripdata_2021-01.parquet
staging_file: /tmp/output.csv
batch_size: 5000
if_exists: append
confirm: true
datetime_columns: [lpep_pickup_datetime, lpep_dropoff_datetime]
index_column: ""
log_format: json
timeout: 10m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "myhost", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "ny_taxi", cfg.Connection.Database)
	assert.Equal(t, "us-west-2", cfg.Connection.AWSRegion)
	assert.Equal(t, 5000, cfg.BatchSize)
	require.NotNil(t, cfg.IndexColumn)
	assert.Equal(t, "", *cfg.IndexColumn)
	assert.Nil(t, cfg.Verbose)

	v := cfg.Values()
	assert.Equal(t, Values{
		"host":             "myhost",
		"port":             "5433",
		"user":             "root",
		"password":         "root",
		"db":               "ny_taxi",
		"sslmode":          "require",
		"connect-timeout":  "15s",
		"auth":             "aws-iam",
		"aws-region":       "us-west-2",
		"table_name":       "yellow_taxi_data",
		"url":              "https://example.com/yellow_tripdata_2021-01.parquet",
		"staging-file":     "/tmp/output.csv",
		"batch-size":       "5000",
		"if-exists":        "append",
		"confirm":          "true",
		"datetime-columns": "lpep_pickup_datetime,lpep_dropoff_datetime",
		"index-column":     "",
		"log-format":       "json",
		"timeout":          "10m",
	}, v)
}

func TestLoad_MinimalYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "run.yaml", "table_name: trips\n"))
	require.NoError(t, err)
	assert.Equal(t, Values{"table_name": "trips"}, cfg.Values())
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, "run.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, cfg.Values())
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.ErrorIs(t, err, ingest.ErrInvalidConfig)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "run.yaml", "{{invalid"))
	assert.ErrorIs(t, err, ingest.ErrInvalidConfig)
	assert.Nil(t, cfg)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeFile(t, "run.yaml", "tabel_name: trips\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "tabel_name")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "PGINGEST_TABLE_NAME", EnvKey("table_name"))
	assert.Equal(t, "PGINGEST_BATCH_SIZE", EnvKey("batch-size"))
	assert.Equal(t, "PGINGEST_USER", EnvKey("user"))
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", `# connection
PGINGEST_USER=root
PGINGEST_PASSWORD="p@ss word"
PGINGEST_TABLE_NAME=yellow_taxi_data
PGINGEST_BATCH_SIZE=500
UNRELATED=ignored
`)
	t.Setenv("PGINGEST_HOST", "from-process-env")

	v, err := LoadEnvFile(path, []string{"user", "password", "host", "table_name", "batch-size"})
	require.NoError(t, err)
	assert.Equal(t, Values{
		"user":       "root",
		"password":   "p@ss word",
		"table_name": "yellow_taxi_data",
		"batch-size": "500",
	}, v, "only the file is consulted, never the process environment")
}

func TestLoadEnvFile_UnknownKey(t *testing.T) {
	path := writeFile(t, ".env", "PGINGEST_BACH_SIZE=10\n")
	_, err := LoadEnvFile(path, []string{"batch-size"})
	require.ErrorIs(t, err, ingest.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "PGINGEST_BACH_SIZE")
}

func TestLoadEnvFile_NotFound(t *testing.T) {
	_, err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"), nil)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestMerge_EarlierLayerWins(t *testing.T) {
	yamlValues := Values{"host": "yaml-host", "port": "6543"}
	envValues := Values{"host": "env-host", "user": "env-user"}

	assert.Equal(t, Values{
		"host": "yaml-host",
		"port": "6543",
		"user": "env-user",
	}, Merge(yamlValues, envValues))
	assert.Empty(t, Merge())
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("host", "", "")
	fs.Int("port", 5432, "")
	fs.Bool("confirm", false, "")
	fs.StringSlice("datetime-columns", []string{"a", "b"}, "")
	fs.String("index-column", "index", "")
	return fs
}

func TestApply_FlagWinsOverValues(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--host", "cli-host"}))

	applied, err := Apply(fs, Values{"host": "file-host", "port": "6543", "confirm": "true"})
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm", "port"}, applied)

	host, _ := fs.GetString("host")
	port, _ := fs.GetInt("port")
	confirm, _ := fs.GetBool("confirm")
	assert.Equal(t, "cli-host", host)
	assert.Equal(t, 6543, port)
	assert.True(t, confirm)
}

func TestApply_SliceReplacesDefault(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse(nil))

	_, err := Apply(fs, Values{"datetime-columns": "x, y", "index-column": ""})
	require.NoError(t, err)

	cols, _ := fs.GetStringSlice("datetime-columns")
	index, _ := fs.GetString("index-column")
	assert.Equal(t, []string{"x", "y"}, cols)
	assert.Equal(t, "", index)
}

func TestApply_Errors(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse(nil))

	_, err := Apply(fs, Values{"nope": "1"})
	assert.ErrorIs(t, err, ingest.ErrInvalidConfig)

	_, err = Apply(fs, Values{"port": "not-a-number"})
	assert.ErrorIs(t, err, ingest.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "port")
}
