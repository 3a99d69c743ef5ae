package db

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/vvka-141/pgingest/pkg/ingest"
)

// BuildConnectionString converts a ConnectionConfig to a PostgreSQL URI for pgx.
func BuildConnectionString(config *ingest.ConnectionConfig) string {
	u := &url.URL{
		Scheme: "postgresql",
		Host:   fmt.Sprintf("%s:%d", config.Host, config.Port),
		Path:   "/" + config.Database,
	}

	if config.Username != "" {
		if config.Password != "" {
			u.User = url.UserPassword(config.Username, config.Password)
		} else {
			u.User = url.User(config.Username)
		}
	}

	query := url.Values{}
	if config.SSLMode != "" {
		query.Set("sslmode", config.SSLMode)
	}
	if config.AppName != "" {
		query.Set("application_name", config.AppName)
	}
	if config.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(config.ConnectTimeout.Seconds())))
	}

	u.RawQuery = query.Encode()
	return u.String()
}

// redactedAddress is host:port for messages; it never carries credentials.
func redactedAddress(config *ingest.ConnectionConfig) string {
	return fmt.Sprintf("%s:%d", config.Host, config.Port)
}
