// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file and the environment.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// metricNameRe matches a legacy Prometheus metric name prefix.
var metricNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches log output to JSON.
	LogJSON bool `koanf:"log_json"`
	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// DBDriver selects the SQL dialect: mysql (TiDB), postgres or sqlite3.
	DBDriver string `koanf:"db_driver"`
	DBHost   string `koanf:"db_host"`
	DBPort   int    `koanf:"db_port"`
	DBUser   string `koanf:"db_user"`
	// DBPassword is never printed by String.
	DBPassword string `koanf:"db_password"`
	// DBName is the database (or the file path for sqlite3).
	DBName string `koanf:"db_database"`
	// DBTLS is "true", "skip-verify", "preferred" or "false".
	DBTLS string `koanf:"db_tls"`
	// DBTLSCA optionally points at a PEM bundle used to verify the server.
	DBTLSCA string `koanf:"db_tls_ca"`

	// PoolSize bounds the number of open connections.
	PoolSize          int `koanf:"pool_size"`
	ConnMaxIdleMS     int `koanf:"conn_max_idle_ms"`
	ConnMaxLifetimeMS int `koanf:"conn_max_lifetime_ms"`
	ConnectTimeoutMS  int `koanf:"connect_timeout_ms"`

	// CORSAllowedOrigins lists origins allowed to call the API; "*" allows all.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
	// RedactPasswords masks the password column in listings.
	RedactPasswords bool `koanf:"redact_passwords"`

	// MetricsNamespace prefixes every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	// MetricsEnv, when set, is attached to every metric as the env label.
	MetricsEnv string `koanf:"metrics_env"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":3000",
		DBDriver:           DriverMySQL,
		DBHost:             "127.0.0.1",
		DBPort:             4000,
		DBUser:             "root",
		DBName:             "test",
		DBTLS:              "true",
		PoolSize:           10,
		ConnMaxIdleMS:      int((10 * time.Minute).Milliseconds()),
		ConnMaxLifetimeMS:  int((30 * time.Minute).Milliseconds()),
		ConnectTimeoutMS:   int((10 * time.Second).Milliseconds()),
		CORSAllowedOrigins: []string{"*"},
		MetricsNamespace:   "accounts",
	}
}

// ConnMaxIdle returns the idle connection timeout.
func (c *Config) ConnMaxIdle() time.Duration {
	return time.Duration(c.ConnMaxIdleMS) * time.Millisecond
}

// ConnMaxLifetime returns the maximum connection lifetime.
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMS) * time.Millisecond
}

// ConnectTimeout returns the timeout applied to the initial ping.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

// String renders the configuration without credentials.
func (c *Config) String() string {
	return fmt.Sprintf("addr=%s driver=%s host=%s port=%d user=%s database=%s tls=%s pool_size=%d",
		c.Addr, c.DBDriver, c.DBHost, c.DBPort, c.DBUser, c.DBName, c.DBTLS, c.PoolSize)
}

// Validate checks the invariants the rest of the service relies on.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres:
		if c.DBHost == "" {
			return fmt.Errorf("%w: db_host must not be empty", ErrInvalidConfig)
		}
		if c.DBPort <= 0 {
			return fmt.Errorf("%w: db_port must be positive", ErrInvalidConfig)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("%w: unsupported db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: db_database must not be empty", ErrInvalidConfig)
	}
	switch c.DBTLS {
	case "true", "skip-verify", "preferred", "false":
	default:
		return fmt.Errorf("%w: unsupported db_tls %q", ErrInvalidConfig, c.DBTLS)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: pool_size must be positive", ErrInvalidConfig)
	}
	if !metricNameRe.MatchString(c.MetricsNamespace) {
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name", ErrInvalidConfig, c.MetricsNamespace)
	}
	return nil
}
