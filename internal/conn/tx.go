package conn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// txQuerier runs statements inside one transaction.
type txQuerier struct {
	runner
}

// WithTransaction runs fn inside a transaction. When fn fails, panics, or
// the commit fails, the transaction is rolled back in full and the returned
// error wraps types.ErrTransaction and the cause. On PostgreSQL the
// transaction runs on a connection checked out of the pool and released on
// every exit path.
func (m *Manager) WithTransaction(ctx context.Context, fn func(q Querier) error) (err error) {
	if err := m.checkOpen(); err != nil {
		return err
	}

	var (
		tx      *sql.Tx
		release = func() error { return nil }
	)
	if m.dedicated {
		c, err := m.db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("%w: acquire connection: %w", types.ErrTransaction, err)
		}
		release = c.Close
		tx, err = c.BeginTx(ctx, nil)
		if err != nil {
			c.Close()
			return fmt.Errorf("%w: begin: %w", types.ErrTransaction, err)
		}
	} else {
		tx, err = m.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin: %w", types.ErrTransaction, err)
		}
	}
	defer func() {
		if cerr := release(); cerr != nil && err == nil {
			err = fmt.Errorf("release connection: %w", cerr)
		}
	}()

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			m.log.Error().Interface("panic", p).Msg("transaction rolled back")
			panic(p)
		}
	}()

	q := &txQuerier{runner: m.runner}
	q.ex = tx

	if ferr := fn(q); ferr != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			ferr = errors.Join(ferr, fmt.Errorf("rollback: %w", rerr))
		}
		m.log.Warn().Err(ferr).Msg("transaction rolled back")
		return fmt.Errorf("%w: %w", types.ErrTransaction, ferr)
	}
	if cerr := tx.Commit(); cerr != nil {
		_ = tx.Rollback()
		m.logBackendError(cerr, "commit failed")
		return fmt.Errorf("%w: commit: %w", types.ErrTransaction, cerr)
	}
	return nil
}
