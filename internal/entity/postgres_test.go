package entity

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoashcraft/County-Connect-sub009/internal/conn"
	"github.com/leoashcraft/County-Connect-sub009/internal/dialect"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

const pgSelect = "SELECT id, entity_type, data, created_by, created_date, updated_date FROM entities"

var pgColumns = []string{"id", "entity_type", "data", "created_by", "created_date", "updated_date"}

func newPostgresStore(t *testing.T, now time.Time) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := conn.New(db, dialect.Postgres{}, conn.Options{DedicatedTxConn: true, Logger: zerolog.Nop()})
	return New(m, WithClock(func() time.Time { return now })), mock
}

func TestPostgres_FilterSQL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st, mock := newPostgresStore(t, now)

	mock.ExpectQuery(pgSelect+" WHERE entity_type = $1 AND data->>'open' = $2 AND data->>'status' = $3"+
		" ORDER BY data->>'name' ASC, id ASC LIMIT $4 OFFSET $5").
		WithArgs("Restaurant", "true", "active", 10, 20).
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("r1", "Restaurant", []byte(`{"name": "Alpha", "open": true, "status": "active"}`), nil, now, now))

	recs, err := st.Filter(context.Background(), "Restaurant",
		map[string]any{"status": "active", "open": true},
		types.ListOptions{Sort: "name", Limit: 10, Skip: 20})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Alpha", recs[0].Data["name"])
	assert.Equal(t, now, recs[0].CreatedDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DefaultSortAndNestedPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st, mock := newPostgresStore(t, now)

	mock.ExpectQuery(pgSelect+" WHERE entity_type = $1 AND data#>>'{address,city}' = $2"+
		" ORDER BY created_date DESC, id DESC").
		WithArgs("Business", "Tyler").
		WillReturnRows(sqlmock.NewRows(pgColumns))

	recs, err := st.Filter(context.Background(), "Business",
		map[string]any{"address.city": "Tyler"}, types.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, recs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateReadsBack(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	stamp := now.Truncate(time.Microsecond)
	st, mock := newPostgresStore(t, now)
	owner := "u1"

	mock.ExpectExec("INSERT INTO entities (id, entity_type, data, created_by, created_date, updated_date)"+
		" VALUES ($1, $2, $3::jsonb, $4, $5, $6)").
		WithArgs(sqlmock.AnyArg(), "Event", `{"title":"Fair"}`, owner, stamp, stamp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(pgSelect+" WHERE id = $1 AND entity_type = $2").
		WithArgs(sqlmock.AnyArg(), "Event").
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("e1", "Event", []byte(`{"title": "Fair"}`), owner, stamp, stamp))

	r, err := st.Create(context.Background(), "Event", map[string]any{"title": "Fair", "id": "x"}, &owner)
	require.NoError(t, err)
	assert.Equal(t, "e1", r.ID)
	assert.Equal(t, map[string]any{"title": "Fair"}, r.Data)
	require.NotNil(t, r.CreatedBy)
	assert.Equal(t, owner, *r.CreatedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateDeletedBetweenReadAndWrite(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	st, mock := newPostgresStore(t, now)

	mock.ExpectQuery(pgSelect+" WHERE id = $1 AND entity_type = $2").
		WithArgs("e1", "Event").
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("e1", "Event", []byte(`{"a": 1}`), nil, before, before))
	mock.ExpectExec("UPDATE entities SET data = $1::jsonb, updated_date = $2 WHERE id = $3 AND entity_type = $4").
		WithArgs(`{"a":1,"b":2}`, now, "e1", "Event").
		WillReturnResult(sqlmock.NewResult(0, 0))

	r, err := st.Update(context.Background(), "Event", "e1", map[string]any{"b": 2})
	require.NoError(t, err)
	assert.Nil(t, r)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteManyAndCount(t *testing.T) {
	st, mock := newPostgresStore(t, time.Now())

	mock.ExpectQuery("SELECT COUNT(*) AS n FROM entities WHERE entity_type = $1 AND data->>'rank' = $2").
		WithArgs("Job", "2.5").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(4)))
	mock.ExpectExec("DELETE FROM entities WHERE entity_type = $1 AND created_by IS NULL").
		WithArgs("Job").
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := st.Count(context.Background(), "Job", map[string]any{"rank": 2.5})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	removed, err := st.DeleteMany(context.Background(), "Job", map[string]any{"createdBy": nil})
	require.NoError(t, err)
	assert.Equal(t, int64(7), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SettingsUpsertInTransaction(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := conn.New(db, dialect.Postgres{}, conn.Options{DedicatedTxConn: true, Logger: zerolog.Nop()})
	s := NewSettings(m)
	s.now = func() time.Time { return now }

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO site_settings`).
		WithArgs("theme", `{"color":"blue"}`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Set(context.Background(), "theme", map[string]any{"color": "blue"}))
	require.NoError(t, mock.ExpectationsWereMet())
}
