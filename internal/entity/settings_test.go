package entity

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

func TestSettings_Lifecycle(t *testing.T) {
	s := NewSettings(openManager(t))
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "homepage")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "homepage", map[string]any{"hero": "Welcome", "count": 3}))
	raw, ok, err := s.Get(ctx, "homepage")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"hero":"Welcome","count":3}`, string(raw))

	require.NoError(t, s.Set(ctx, "homepage", "plain"))
	raw, ok, err = s.Get(ctx, "homepage")
	require.NoError(t, err)
	require.True(t, ok)
	var v string
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, "plain", v)

	removed, err := s.Delete(ctx, "homepage")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Delete(ctx, "homepage")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSettings_InvalidInput(t *testing.T) {
	s := NewSettings(openManager(t))
	ctx := context.Background()

	_, _, err := s.Get(ctx, "")
	assert.ErrorIs(t, err, types.ErrInvalidKey)
	err = s.Set(ctx, strings.Repeat("k", 256), 1)
	assert.ErrorIs(t, err, types.ErrInvalidKey)
	_, err = s.Delete(ctx, "")
	assert.ErrorIs(t, err, types.ErrInvalidKey)

	err = s.Set(ctx, "k", make(chan int))
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestSettings_ConcurrentUpserts(t *testing.T) {
	s := NewSettings(openManager(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, "counter", i))
		}(i)
	}
	wg.Wait()

	raw, ok, err := s.Get(ctx, "counter")
	require.NoError(t, err)
	require.True(t, ok)
	var n int
	require.NoError(t, json.Unmarshal(raw, &n))
	assert.True(t, n >= 0 && n < 10, "one of the writers wins, got %d", n)
}
