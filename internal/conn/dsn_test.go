package conn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.PostgresConfig
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  types.PostgresConfig{DSN: "postgres://u:p@db/county", Host: "ignored"},
			want: "postgres://u:p@db/county",
		},
		{
			name: "defaults",
			cfg:  types.PostgresConfig{Host: "db", Database: "county"},
			want: "host=db port=5432 dbname=county sslmode=disable",
		},
		{
			name: "credentials quoted",
			cfg: types.PostgresConfig{
				Host: "db", Port: 6543, Database: "county", SSLMode: "require",
				User: "app", Password: `pa ss'\`,
			},
			want: `host=db port=6543 dbname=county sslmode=require user=app password='pa ss\'\\'`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, postgresDSN(tt.cfg))
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN("/data/county.db", 5*time.Second)
	assert.Contains(t, dsn, "file:/data/county.db?")
	assert.Contains(t, dsn, "busy_timeout%285000%29")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")
	assert.Contains(t, dsn, "foreign_keys%281%29")

	mem := sqliteDSN(":memory:", time.Second)
	assert.NotContains(t, mem, "journal_mode")
}

func TestQuoteDSNValue(t *testing.T) {
	assert.Equal(t, "plain", quoteDSNValue("plain"))
	assert.Equal(t, "''", quoteDSNValue(""))
	assert.Equal(t, "'a b'", quoteDSNValue("a b"))
}
