package conn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leoashcraft/County-Connect-sub009/internal/dialect"
)

// runner executes statements against a *sql.DB or *sql.Tx.
type runner struct {
	ex      execQuerier
	dialect dialect.Dialect
	timeout time.Duration
	log     zerolog.Logger
}

// Dialect implements Querier.
func (r runner) Dialect() dialect.Dialect { return r.dialect }

// withTimeout applies the statement timeout unless ctx already has a deadline.
func (r runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// QueryAll implements Querier.
func (r runner) QueryAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	r.log.Debug().Str("sql", query).Int("args", len(args)).Msg("query")
	rows, err := r.ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// QueryOne implements Querier.
func (r runner) QueryOne(ctx context.Context, query string, args ...any) (Row, bool, error) {
	rows, err := r.QueryAll(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Execute implements Querier.
func (r runner) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	r.log.Debug().Str("sql", query).Int("args", len(args)).Msg("exec")
	res, err := r.ex.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, fmt.Errorf("rows affected: %w", err)
	}
	// PostgreSQL has no last insert id; the error is expected there.
	inserted, _ := res.LastInsertId()
	return Result{Affected: affected, InsertedID: inserted}, nil
}

// scanRows reads every row into a column-keyed map.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
