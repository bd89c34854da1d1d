package conn

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoashcraft/County-Connect-sub009/internal/dialect"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

func openSQLite(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(context.Background(), types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestOpen_SQLiteCreatesFileAndSchema(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(context.Background(), types.Config{
		Backend: types.BackendSQLite,
		DataDir: filepath.Join(dir, "nested"),
	}, zerolog.Nop())
	require.NoError(t, err)
	defer m.Close()

	_, err = os.Stat(filepath.Join(dir, "nested", types.DefaultSQLiteFile))
	require.NoError(t, err, "database file should exist")

	rows, err := m.QueryAll(context.Background(),
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	require.NoError(t, err)
	var names []string
	for _, r := range rows {
		names = append(names, r.String("name"))
	}
	assert.Contains(t, names, "entities")
	assert.Contains(t, names, "users")
	assert.Contains(t, names, "site_settings")
}

func TestOpen_BootstrapIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	m, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	_, err = m.Execute(context.Background(),
		"INSERT INTO entities (id, entity_type, data, created_date, updated_date) VALUES (?, ?, ?, ?, ?)",
		"e1", "Event", "{}", "2026-01-01T00:00:00.000000Z", "2026-01-01T00:00:00.000000Z")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	m, err = Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.Bootstrap(context.Background()))

	row, ok, err := m.QueryOne(context.Background(), "SELECT COUNT(*) AS n FROM entities")
	require.NoError(t, err)
	require.True(t, ok)
	n, err := row.Int64("n")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "restart must not drop data")
}

func TestOpen_SQLiteUnopenable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Open(context.Background(), types.Config{
		Backend: types.BackendSQLite,
		DataDir: filepath.Join(blocker, "sub"),
	}, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConnection)
}

func TestOpen_PostgresUnreachable(t *testing.T) {
	_, err := Open(context.Background(), types.Config{
		Backend:          types.BackendPostgres,
		StatementTimeout: 2 * time.Second,
		Postgres: types.PostgresConfig{
			DSN: "host=127.0.0.1 port=1 dbname=county sslmode=disable connect_timeout=1",
		},
	}, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConnection)
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), types.Config{}, zerolog.Nop())
	assert.ErrorIs(t, err, types.ErrBackendEmpty)
}

func TestExecuteAndQuery(t *testing.T) {
	m := openSQLite(t)
	ctx := context.Background()

	res, err := m.Execute(ctx,
		"INSERT INTO site_settings (key, value, updated_date) VALUES (?, ?, ?)",
		"k", `{"a":1}`, "2026-01-01T00:00:00.000000Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)

	row, ok, err := m.QueryOne(ctx, "SELECT key, value FROM site_settings WHERE key = ?", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, row.String("value"))

	_, ok, err = m.QueryOne(ctx, "SELECT key FROM site_settings WHERE key = ?", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := m.QueryAll(ctx, "SELECT key FROM site_settings WHERE key = ?", "missing")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWithTransaction_SQLiteRollsBack(t *testing.T) {
	m := openSQLite(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.WithTransaction(ctx, func(q Querier) error {
		if _, err := q.Execute(ctx,
			"INSERT INTO site_settings (key, value, updated_date) VALUES (?, ?, ?)",
			"k", "{}", "2026-01-01T00:00:00.000000Z"); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTransaction)
	assert.ErrorIs(t, err, boom)

	_, ok, err := m.QueryOne(ctx, "SELECT key FROM site_settings WHERE key = ?", "k")
	require.NoError(t, err)
	assert.False(t, ok, "insert must have been rolled back")
}

func TestWithTransaction_SQLiteCommits(t *testing.T) {
	m := openSQLite(t)
	ctx := context.Background()

	err := m.WithTransaction(ctx, func(q Querier) error {
		_, err := q.Execute(ctx,
			"INSERT INTO site_settings (key, value, updated_date) VALUES (?, ?, ?)",
			"k", "{}", "2026-01-01T00:00:00.000000Z")
		return err
	})
	require.NoError(t, err)

	_, ok, err := m.QueryOne(ctx, "SELECT key FROM site_settings WHERE key = ?", "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	m := openSQLite(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = m.WithTransaction(ctx, func(q Querier) error {
			_, _ = q.Execute(ctx,
				"INSERT INTO site_settings (key, value, updated_date) VALUES (?, ?, ?)",
				"p", "{}", "2026-01-01T00:00:00.000000Z")
			panic("handler bug")
		})
	})

	_, ok, err := m.QueryOne(ctx, "SELECT key FROM site_settings WHERE key = ?", "p")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithTransaction_PostgresDedicatedConn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := New(db, dialect.Postgres{}, Options{DedicatedTxConn: true, Logger: zerolog.Nop()})
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO site_settings").
		WithArgs("k", "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = m.WithTransaction(ctx, func(q Querier) error {
		_, err := q.Execute(ctx, "INSERT INTO site_settings (key, value) VALUES ($1, $2::jsonb)", "k", "{}")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	stats := db.Stats()
	assert.Equal(t, 0, stats.InUse, "dedicated connection must be released")
}

func TestWithTransaction_PostgresRollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := New(db, dialect.Postgres{}, Options{DedicatedTxConn: true, Logger: zerolog.Nop()})
	ctx := context.Background()
	failure := errors.New("duplicate key")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO site_settings").WillReturnError(failure)
	mock.ExpectRollback()

	err = m.WithTransaction(ctx, func(q Querier) error {
		_, err := q.Execute(ctx, "INSERT INTO site_settings (key, value) VALUES ($1, $2::jsonb)", "k", "{}")
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTransaction)
	assert.ErrorIs(t, err, failure)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestWithTransaction_CommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := New(db, dialect.Postgres{}, Options{DedicatedTxConn: true, Logger: zerolog.Nop()})

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err = m.WithTransaction(context.Background(), func(q Querier) error { return nil })
	assert.ErrorIs(t, err, types.ErrTransaction)
}

func TestBootstrap_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	d := dialect.Postgres{}
	m := New(db, d, Options{DedicatedTxConn: true, Logger: zerolog.Nop()})

	mock.ExpectBegin()
	for _, stmt := range d.DDL() {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, m.Bootstrap(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := New(db, dialect.Postgres{}, Options{StatementTimeout: 50 * time.Millisecond, Logger: zerolog.Nop()})
	mock.ExpectQuery("SELECT pg_sleep").
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))

	start := time.Now()
	_, err = m.QueryAll(context.Background(), "SELECT pg_sleep(1)")
	require.Error(t, err, "query must be cut off by the statement timeout")
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestClose_Idempotent(t *testing.T) {
	m := openSQLite(t)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.QueryAll(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, types.ErrClosed)
	_, err = m.Execute(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, types.ErrClosed)
	err = m.WithTransaction(context.Background(), func(Querier) error { return nil })
	assert.ErrorIs(t, err, types.ErrClosed)
}
