// Package entity implements the schema-less document store over the
// entities table, plus the site settings key/value store.
package entity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leoashcraft/County-Connect-sub009/internal/conn"
	"github.com/leoashcraft/County-Connect-sub009/internal/dialect"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// maxEntityTypeLength bounds the entity type discriminator.
const maxEntityTypeLength = 100

// Store implements types.EntityStore on a conn.Manager.
//
// Concurrent Update calls on the same id race at the backend: each reads,
// merges and writes, so the last write wins. There is no version check.
type Store struct {
	m   *conn.Manager
	now func() time.Time
	log zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New returns a Store using m for every backend call.
func New(m *conn.Manager, opts ...Option) *Store {
	s := &Store{m: m, now: time.Now, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ types.EntityStore = (*Store)(nil)

// Close releases the backend handle.
func (s *Store) Close() error { return s.m.Close() }

// FindByID implements types.EntityStore.
func (s *Store) FindByID(ctx context.Context, entityType, id string) (*types.Record, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}
	return findByID(ctx, s.m, entityType, id)
}

// List implements types.EntityStore.
func (s *Store) List(ctx context.Context, entityType string, opts types.ListOptions) ([]*types.Record, error) {
	return s.Filter(ctx, entityType, nil, opts)
}

// Filter implements types.EntityStore. Conditions are ANDed.
func (s *Store) Filter(ctx context.Context, entityType string, query map[string]any, opts types.ListOptions) ([]*types.Record, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, err
	}
	b := newBuilder(s.m.Dialect(), entityType)
	if err := b.filter(query); err != nil {
		return nil, err
	}
	if err := b.order(opts.Sort); err != nil {
		return nil, err
	}
	b.paginate(opts.Limit, opts.Skip)

	rows, err := s.m.QueryAll(ctx, b.selectSQL(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", entityType, err)
	}
	return decodeRecords(s.m.Dialect(), rows)
}

// Count implements types.EntityStore.
func (s *Store) Count(ctx context.Context, entityType string, query map[string]any) (int64, error) {
	if err := checkEntityType(entityType); err != nil {
		return 0, err
	}
	b := newBuilder(s.m.Dialect(), entityType)
	if err := b.filter(query); err != nil {
		return 0, err
	}
	row, _, err := s.m.QueryOne(ctx, "SELECT COUNT(*) AS n FROM entities"+b.whereSQL(), b.args...)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", entityType, err)
	}
	return row.Int64("n")
}

// findByID reads one record through q.
func findByID(ctx context.Context, q conn.Querier, entityType, id string) (*types.Record, error) {
	d := q.Dialect()
	query := fmt.Sprintf("SELECT %s FROM entities WHERE id = %s AND entity_type = %s",
		strings.Join(dialect.EntityColumns, ", "), d.Placeholder(1), d.Placeholder(2))
	row, ok, err := q.QueryOne(ctx, query, id, entityType)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", entityType, id, err)
	}
	if !ok {
		return nil, nil
	}
	return decodeRecord(d, row)
}

// checkEntityType rejects an empty or oversized discriminator.
func checkEntityType(entityType string) error {
	if entityType == "" || len(entityType) > maxEntityTypeLength {
		return types.ErrInvalidEntityType
	}
	return nil
}

// decodeRecord merges system columns with the stored JSON document.
func decodeRecord(d dialect.Dialect, row conn.Row) (*types.Record, error) {
	r := &types.Record{
		ID:         row.String(dialect.ColID),
		EntityType: row.String(dialect.ColEntityType),
		CreatedBy:  row.NullString(dialect.ColCreatedBy),
	}

	data := map[string]any{}
	if raw := row.Bytes(dialect.ColData); len(raw) > 0 {
		if err := types.DecodeJSON(raw, &data); err != nil {
			return nil, fmt.Errorf("parsing data of %s: %w", r.ID, err)
		}
	}
	r.Data = types.StripReserved(data)

	var err error
	if r.CreatedDate, err = d.DecodeTime(row[dialect.ColCreatedDate]); err != nil {
		return nil, fmt.Errorf("parsing created_date of %s: %w", r.ID, err)
	}
	if r.UpdatedDate, err = d.DecodeTime(row[dialect.ColUpdatedDate]); err != nil {
		return nil, fmt.Errorf("parsing updated_date of %s: %w", r.ID, err)
	}
	return r, nil
}

func decodeRecords(d dialect.Dialect, rows []conn.Row) ([]*types.Record, error) {
	out := make([]*types.Record, 0, len(rows))
	for _, row := range rows {
		r, err := decodeRecord(d, row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// builder accumulates a WHERE/ORDER/LIMIT tail and its parameters.
type builder struct {
	d          dialect.Dialect
	conditions []string
	orderBy    []string
	tail       string
	args       []any
}

func newBuilder(d dialect.Dialect, entityType string) *builder {
	b := &builder{d: d}
	b.conditions = append(b.conditions, "entity_type = "+b.bind(entityType))
	return b
}

// bind appends a parameter and returns its placeholder.
func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

// filter adds one equality per query key, in key order so the generated SQL
// is stable.
func (b *builder) filter(query map[string]any) error {
	keys := make([]string, 0, len(query))
	for k := range query {
		if _, err := dialect.ValidateFieldName(k); err != nil {
			return err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		frag, args, err := b.d.FilterEquals(k, query[k], len(b.args)+1)
		if err != nil {
			return err
		}
		b.conditions = append(b.conditions, frag)
		b.args = append(b.args, args...)
	}
	return nil
}

// order sets the sort term plus an id tie-break in the same direction.
func (b *builder) order(sortSpec string) error {
	field, dir, err := dialect.ParseSort(sortSpec)
	if err != nil {
		return err
	}
	term, err := b.d.OrderBy(field, dir)
	if err != nil {
		return err
	}
	b.orderBy = append(b.orderBy, term)
	if field != types.KeyID {
		b.orderBy = append(b.orderBy, dialect.ColID+" "+string(dir))
	}
	return nil
}

// paginate appends LIMIT/OFFSET. Negative values count as zero.
func (b *builder) paginate(limit, skip int) {
	frag, args := b.d.Paginate(max(limit, 0), max(skip, 0), len(b.args)+1)
	b.tail = frag
	b.args = append(b.args, args...)
}

func (b *builder) whereSQL() string {
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

func (b *builder) selectSQL() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(dialect.EntityColumns, ", "))
	sb.WriteString(" FROM entities")
	sb.WriteString(b.whereSQL())
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.tail != "" {
		sb.WriteString(" ")
		sb.WriteString(b.tail)
	}
	return sb.String()
}
