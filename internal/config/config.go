package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgingest/pkg/ingest"
)

// ErrConfigNotFound is returned when a named run file or env file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// EnvPrefix prefixes every key read from an --env-file.
const EnvPrefix = "PGINGEST_"

// Values maps flag names to their textual values, as they would be typed on
// the command line.
type Values map[string]string

// ConnectionConfig is the connection section of a run file.
type ConnectionConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	User              string `yaml:"user"`
	Password          string `yaml:"password"`
	Database          string `yaml:"db"`
	SSLMode           string `yaml:"sslmode"`
	ConnectTimeout    string `yaml:"connect_timeout"`
	Auth              string `yaml:"auth"`
	AWSRegion         string `yaml:"aws_region"`
	GoogleInstance    string `yaml:"google_instance"`
	AzureTenantID     string `yaml:"azure_tenant_id"`
	AzureClientID     string `yaml:"azure_client_id"`
	AzureClientSecret string `yaml:"azure_client_secret"`
}

// RunFile is the YAML document accepted by --config.
type RunFile struct {
	Connection      ConnectionConfig `yaml:"connection"`
	TableName       string           `yaml:"table_name"`
	URL             string           `yaml:"url"`
	StagingFile     string           `yaml:"staging_file"`
	BatchSize       int              `yaml:"batch_size"`
	IfExists        string           `yaml:"if_exists"`
	Confirm         *bool            `yaml:"confirm"`
	DatetimeColumns []string         `yaml:"datetime_columns"`
	IndexColumn     *string          `yaml:"index_column"`
	LogFormat       string           `yaml:"log_format"`
	Timeout         string           `yaml:"timeout"`
	Verbose         *bool            `yaml:"verbose"`
}

// Load parses the run file at path. Unknown keys are rejected so that a
// misspelt setting does not silently fall back to its default.
func Load(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s: %w", ingest.ErrInvalidConfig, path, ErrConfigNotFound)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ingest.ErrInvalidConfig, path, err)
	}

	var cfg RunFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse %s: %w", ingest.ErrInvalidConfig, path, err)
	}
	return &cfg, nil
}

// Values flattens the run file into flag values. Zero fields are omitted;
// index_column may be set to an empty string to disable the index column.
func (r *RunFile) Values() Values {
	v := Values{}
	set := func(name, value string) {
		if value != "" {
			v[name] = value
		}
	}

	c := r.Connection
	set("host", c.Host)
	if c.Port != 0 {
		v["port"] = strconv.Itoa(c.Port)
	}
	set("user", c.User)
	set("password", c.Password)
	set("db", c.Database)
	set("sslmode", c.SSLMode)
	set("connect-timeout", c.ConnectTimeout)
	set("auth", c.Auth)
	set("aws-region", c.AWSRegion)
	set("google-instance", c.GoogleInstance)
	set("azure-tenant-id", c.AzureTenantID)
	set("azure-client-id", c.AzureClientID)
	set("azure-client-secret", c.AzureClientSecret)

	set("table_name", r.TableName)
	set("url", r.URL)
	set("staging-file", r.StagingFile)
	if r.BatchSize != 0 {
		v["batch-size"] = strconv.Itoa(r.BatchSize)
	}
	set("if-exists", r.IfExists)
	if r.Confirm != nil {
		v["confirm"] = strconv.FormatBool(*r.Confirm)
	}
	if len(r.DatetimeColumns) > 0 {
		v["datetime-columns"] = strings.Join(r.DatetimeColumns, ",")
	}
	if r.IndexColumn != nil {
		v["index-column"] = *r.IndexColumn
	}
	set("log-format", r.LogFormat)
	set("timeout", r.Timeout)
	if r.Verbose != nil {
		v["verbose"] = strconv.FormatBool(*r.Verbose)
	}
	return v
}

// EnvKey returns the env-file key for a flag name: table_name becomes
// PGINGEST_TABLE_NAME and batch-size becomes PGINGEST_BATCH_SIZE.
func EnvKey(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// LoadEnvFile reads a .env file and returns the values for the named flags.
// The process environment is neither read nor modified. Keys carrying the
// prefix but matching no flag are rejected.
func LoadEnvFile(path string, flags []string) (Values, error) {
	raw, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s: %w", ingest.ErrInvalidConfig, path, ErrConfigNotFound)
		}
		return nil, fmt.Errorf("%w: parse %s: %w", ingest.ErrInvalidConfig, path, err)
	}

	known := make(map[string]string, len(flags))
	for _, name := range flags {
		known[EnvKey(name)] = name
	}

	v := Values{}
	var unknown []string
	for key, value := range raw {
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		name, ok := known[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		v[name] = value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ingest.ErrInvalidConfig, path, strings.Join(unknown, ", "))
	}
	return v, nil
}

// Merge combines layers, earlier layers taking precedence.
func Merge(layers ...Values) Values {
	merged := Values{}
	for i := len(layers) - 1; i >= 0; i-- {
		for k, v := range layers[i] {
			merged[k] = v
		}
	}
	return merged
}

// Apply sets every value whose flag was not given on the command line, so an
// explicit flag always wins. It returns the names it applied, sorted.
func Apply(fs *pflag.FlagSet, v Values) ([]string, error) {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)

	var applied []string
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil {
			return applied, fmt.Errorf("%w: unknown setting %q", ingest.ErrInvalidConfig, name)
		}
		if f.Changed {
			continue
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if err := sv.Replace(splitList(v[name])); err != nil {
				return applied, fmt.Errorf("%w: %s: %w", ingest.ErrInvalidConfig, name, err)
			}
		} else if err := f.Value.Set(v[name]); err != nil {
			return applied, fmt.Errorf("%w: %s=%q: %w", ingest.ErrInvalidConfig, name, v[name], err)
		}
		applied = append(applied, name)
	}
	return applied, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
