package types

import (
	"errors"
	"time"
)

// Config holds backend selection and connection parameters for the store.
// It is read once at startup; nothing in it is renegotiated at runtime.
type Config struct {
	Backend          string         `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir          string         `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SQLite           SQLiteConfig   `json:"sqlite" yaml:"sqlite" mapstructure:"sqlite"`
	Postgres         PostgresConfig `json:"postgres" yaml:"postgres" mapstructure:"postgres"`
	StatementTimeout time.Duration  `json:"statement_timeout" yaml:"statement_timeout" mapstructure:"statement_timeout"`
	LogLevel         string         `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFile          string         `json:"log_file" yaml:"log_file" mapstructure:"log_file"` // "-" logs to stderr
}

// SQLiteConfig holds parameters for the embedded single-file backend.
type SQLiteConfig struct {
	// Path is the database file. Relative paths resolve against DataDir.
	// Empty means DataDir/county.db.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout" mapstructure:"busy_timeout"`
}

// PostgresConfig holds parameters for the networked backend.
// DSN wins over the discrete fields when set.
type PostgresConfig struct {
	DSN             string        `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	Host            string        `json:"host" yaml:"host" mapstructure:"host"`
	Port            int           `json:"port" yaml:"port" mapstructure:"port"`
	User            string        `json:"user" yaml:"user" mapstructure:"user"`
	Password        string        `json:"password" yaml:"password" mapstructure:"password"`
	Database        string        `json:"database" yaml:"database" mapstructure:"database"`
	SSLMode         string        `json:"sslmode" yaml:"sslmode" mapstructure:"sslmode"`
	PoolSize        int           `json:"pool_size" yaml:"pool_size" mapstructure:"pool_size"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Defaults applied when the corresponding Config field is zero.
const (
	DefaultSQLiteFile       = "county.db"
	DefaultBusyTimeout      = 5 * time.Second
	DefaultStatementTimeout = 30 * time.Second
	DefaultPoolSize         = 10
	DefaultPostgresPort     = 5432
	DefaultPostgresSSLMode  = "disable"
	DefaultConnMaxLifetime  = 30 * time.Minute
	DefaultLogLevel         = "info"
	LogToStderr             = "-"
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrPostgresTarget  = errors.New("postgres backend needs a dsn or a host and database")
	ErrPoolSizeInvalid = errors.New("pool size must not be negative")
	ErrTimeoutInvalid  = errors.New("statement timeout must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.StatementTimeout < 0 {
		return ErrTimeoutInvalid
	}
	if c.Backend == BackendPostgres {
		if c.Postgres.PoolSize < 0 {
			return ErrPoolSizeInvalid
		}
		if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.Database == "") {
			return ErrPostgresTarget
		}
	}
	return nil
}

// GetStatementTimeout returns the per-call timeout, defaulting when unset.
func (c Config) GetStatementTimeout() time.Duration {
	if c.StatementTimeout == 0 {
		return DefaultStatementTimeout
	}
	return c.StatementTimeout
}

// GetPoolSize returns the bounded pool size for the networked backend.
func (c PostgresConfig) GetPoolSize() int {
	if c.PoolSize == 0 {
		return DefaultPoolSize
	}
	return c.PoolSize
}

// GetConnMaxLifetime returns how long a pooled connection may be reused.
func (c PostgresConfig) GetConnMaxLifetime() time.Duration {
	if c.ConnMaxLifetime == 0 {
		return DefaultConnMaxLifetime
	}
	return c.ConnMaxLifetime
}

// GetBusyTimeout returns the SQLite busy timeout.
func (c SQLiteConfig) GetBusyTimeout() time.Duration {
	if c.BusyTimeout == 0 {
		return DefaultBusyTimeout
	}
	return c.BusyTimeout
}
