package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	entities, settings, err := Open(ctx, types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	})
	require.NoError(t, err)
	defer entities.Close()

	r, err := entities.Create(ctx, "Restaurant", map[string]any{"name": "Alpha"}, nil)
	require.NoError(t, err)
	got, err := entities.FindByID(ctx, "Restaurant", r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alpha", got.Data["name"])

	require.NoError(t, settings.Set(ctx, "site", map[string]any{"title": "County"}))
	raw, ok, err := settings.Get(ctx, "site")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"County"}`, string(raw))
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.Config
		want error
	}{
		{name: "no backend", cfg: types.Config{}, want: types.ErrBackendEmpty},
		{name: "unknown backend", cfg: types.Config{Backend: "mysql"}, want: types.ErrBackendUnknown},
		{name: "postgres without target", cfg: types.Config{Backend: types.BackendPostgres}, want: types.ErrPostgresTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Open(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
