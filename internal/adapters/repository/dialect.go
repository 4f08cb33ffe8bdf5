package repository

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"

	"github.com/okian/accounts/internal/config"
)

const mysqlTLSProfile = "accounts"

// dialect pairs a driver with its error classifier. The driver name also
// selects the sqlx bind style ("?" or "$n").
type dialect struct {
	name     string
	classify classifier
}

// Statements shared by every dialect. insertUserSQL uses sqlx named
// parameters bound from model.User's db tags.
const (
	insertUserSQL = `INSERT INTO users (id, username, password, warnings) VALUES (:id, :username, :password, :warnings)`
	listUsersSQL  = `SELECT id, username, password, warnings FROM users`
)

var dialects = map[string]dialect{ //nolint:gochecknoglobals // static lookup table
	config.DriverMySQL:    {name: config.DriverMySQL, classify: classifyMySQL},
	config.DriverPostgres: {name: config.DriverPostgres, classify: classifyPostgres},
	config.DriverSQLite:   {name: config.DriverSQLite, classify: classifySQLite},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return d, nil
}

// openDB builds an unpinged *sql.DB for the configured driver.
func openDB(cfg *config.Config) (*sql.DB, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		return openMySQL(cfg)
	case config.DriverPostgres:
		return openPostgres(cfg)
	case config.DriverSQLite:
		return sql.Open(config.DriverSQLite, cfg.DBName)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.DBDriver)
	}
}

func openMySQL(cfg *config.Config) (*sql.DB, error) {
	mc, err := mysqlConfig(cfg)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

// mysqlConfig maps the service configuration onto the driver's own config.
// TiDB Cloud requires verified TLS, so "true" is the default.
func mysqlConfig(cfg *config.Config) (*mysql.Config, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort))
	mc.DBName = cfg.DBName
	mc.Timeout = cfg.ConnectTimeout()
	mc.TLSConfig = cfg.DBTLS

	if cfg.DBTLSCA != "" && cfg.DBTLS == "true" {
		tlsCfg, err := caTLSConfig(cfg.DBTLSCA, cfg.DBHost)
		if err != nil {
			return nil, err
		}
		if err := mysql.RegisterTLSConfig(mysqlTLSProfile, tlsCfg); err != nil {
			return nil, fmt.Errorf("register tls config: %w", err)
		}
		mc.TLSConfig = mysqlTLSProfile
	}
	return mc, nil
}

func caTLSConfig(caPath, serverName string) (*tls.Config, error) {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("read ca bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCA, caPath)
	}
	return &tls.Config{RootCAs: pool, ServerName: serverName, MinVersion: tls.VersionTLS12}, nil
}

func openPostgres(cfg *config.Config) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn for database %s: %w", cfg.DBName, err)
	}
	return stdlib.OpenDB(*connCfg), nil
}

func postgresDSN(cfg *config.Config) string {
	q := url.Values{}
	q.Set("sslmode", postgresSSLMode(cfg.DBTLS))
	if cfg.DBTLSCA != "" {
		q.Set("sslrootcert", cfg.DBTLSCA)
	}
	if secs := int(cfg.ConnectTimeout().Seconds()); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort)),
		Path:     "/" + cfg.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func postgresSSLMode(mode string) string {
	switch mode {
	case "false":
		return "disable"
	case "preferred":
		return "prefer"
	case "skip-verify":
		return "require"
	default:
		return "verify-full"
	}
}
