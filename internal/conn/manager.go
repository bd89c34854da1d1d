// Package conn owns the single backend handle of the process and exposes
// query, execute and transaction primitives with one signature for both
// backends. It also runs the idempotent schema bootstrap.
package conn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/leoashcraft/County-Connect-sub009/internal/dialect"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// Querier is the statement surface shared by the Manager and by the
// transaction handle passed to WithTransaction.
type Querier interface {
	// QueryAll runs query and returns every row.
	QueryAll(ctx context.Context, query string, args ...any) ([]Row, error)

	// QueryOne runs query and returns its first row; ok is false when the
	// query produced no rows.
	QueryOne(ctx context.Context, query string, args ...any) (row Row, ok bool, err error)

	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, query string, args ...any) (Result, error)

	// Dialect returns the active SQL dialect.
	Dialect() dialect.Dialect
}

// execQuerier is satisfied by *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Options tunes a Manager built with New.
type Options struct {
	// StatementTimeout bounds each backend call whose context has no
	// deadline. Zero disables the bound.
	StatementTimeout time.Duration
	// DedicatedTxConn makes WithTransaction check a connection out of the
	// pool and run BEGIN/COMMIT/ROLLBACK on it.
	DedicatedTxConn bool
	Logger          zerolog.Logger
}

// Manager holds the one live backend handle of the process.
// It is safe for concurrent use.
type Manager struct {
	runner
	db        *sql.DB
	dedicated bool

	mu     sync.RWMutex
	closed bool
}

// New wraps an already opened database. It does not run the bootstrap.
func New(db *sql.DB, d dialect.Dialect, opts Options) *Manager {
	return &Manager{
		runner: runner{
			ex:      db,
			dialect: d,
			timeout: opts.StatementTimeout,
			log:     opts.Logger,
		},
		db:        db,
		dedicated: opts.DedicatedTxConn,
	}
}

// Open connects to the backend selected by cfg, verifies it is reachable
// and bootstraps the schema. Any failure wraps types.ErrConnection and is
// meant to be fatal; Open does not retry.
func Open(ctx context.Context, cfg types.Config, log zerolog.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, err := dialect.New(cfg.Backend)
	if err != nil {
		return nil, err
	}

	var dsn string
	switch cfg.Backend {
	case types.BackendSQLite:
		path, err := resolveSQLitePath(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrConnection, err)
		}
		dsn = sqliteDSN(path, cfg.SQLite.GetBusyTimeout())
	case types.BackendPostgres:
		dsn = postgresDSN(cfg.Postgres)
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", types.ErrConnection, d.Name(), err)
	}

	switch cfg.Backend {
	case types.BackendSQLite:
		// One connection: the embedded backend serializes writers itself.
		db.SetMaxOpenConns(1)
	case types.BackendPostgres:
		size := cfg.Postgres.GetPoolSize()
		db.SetMaxOpenConns(size)
		db.SetMaxIdleConns(size)
		db.SetConnMaxLifetime(cfg.Postgres.GetConnMaxLifetime())
	}

	m := New(db, d, Options{
		StatementTimeout: cfg.GetStatementTimeout(),
		DedicatedTxConn:  cfg.Backend == types.BackendPostgres,
		Logger:           log.With().Str("backend", d.Name()).Logger(),
	})

	pingCtx, cancel := m.withTimeout(ctx)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		m.logBackendError(err, "ping failed")
		return nil, fmt.Errorf("%w: ping %s: %w", types.ErrConnection, d.Name(), err)
	}

	if err := m.Bootstrap(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", types.ErrConnection, err)
	}

	m.log.Info().Msg("backend attached")
	return m, nil
}

// Bootstrap executes the dialect DDL in one transaction. Every statement is
// IF NOT EXISTS, so repeated runs are no-ops.
func (m *Manager) Bootstrap(ctx context.Context) error {
	err := m.WithTransaction(ctx, func(q Querier) error {
		for _, stmt := range q.Dialect().DDL() {
			if _, err := q.Execute(ctx, stmt); err != nil {
				return fmt.Errorf("bootstrap schema: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.log.Debug().Int("statements", len(m.dialect.DDL())).Msg("schema bootstrapped")
	return nil
}

// QueryAll implements Querier.
func (m *Manager) QueryAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	return m.runner.QueryAll(ctx, query, args...)
}

// QueryOne implements Querier.
func (m *Manager) QueryOne(ctx context.Context, query string, args ...any) (Row, bool, error) {
	if err := m.checkOpen(); err != nil {
		return nil, false, err
	}
	return m.runner.QueryOne(ctx, query, args...)
}

// Execute implements Querier.
func (m *Manager) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	if err := m.checkOpen(); err != nil {
		return Result{}, err
	}
	return m.runner.Execute(ctx, query, args...)
}

// Close releases the backend handle. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	if err := m.db.Close(); err != nil {
		return err
	}
	m.log.Info().Msg("backend detached")
	return nil
}

func (m *Manager) checkOpen() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return types.ErrClosed
	}
	return nil
}

// logBackendError adds the SQLSTATE to the log line when the backend is
// PostgreSQL.
func (m *Manager) logBackendError(err error, msg string) {
	ev := m.log.Error().Err(err)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		ev = ev.Str("sqlstate", string(pqErr.Code)).Str("severity", pqErr.Severity)
	}
	ev.Msg(msg)
}

// resolveSQLitePath returns the database file path, creating its directory.
func resolveSQLitePath(cfg types.Config) (string, error) {
	path := cfg.SQLite.Path
	if path == ":memory:" {
		return path, nil
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if path == "" {
		path = types.DefaultSQLiteFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dataDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return path, nil
}
