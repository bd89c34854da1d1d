package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leoashcraft/County-Connect-sub009/internal/conn"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// maxSettingKeyLength bounds a site setting key.
const maxSettingKeyLength = 255

// Settings implements types.SettingStore over the site_settings table.
type Settings struct {
	m   *conn.Manager
	now func() time.Time
}

var _ types.SettingStore = (*Settings)(nil)

// NewSettings returns a Settings store using m.
func NewSettings(m *conn.Manager) *Settings {
	return &Settings{m: m, now: time.Now}
}

// Get returns the stored JSON value; ok is false when key is unset.
func (s *Settings) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	row, ok, err := s.m.QueryOne(ctx,
		"SELECT value FROM site_settings WHERE key = "+s.m.Dialect().Placeholder(1), key)
	if err != nil {
		return nil, false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return json.RawMessage(row.Bytes("value")), true, nil
}

// Set stores value, encoded as JSON, under key. Concurrent writers of the
// same key each land atomically; the last commit wins.
func (s *Settings) Set(ctx context.Context, key string, value any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	now := s.now().UTC().Truncate(time.Microsecond)
	return s.m.WithTransaction(ctx, func(q conn.Querier) error {
		query, args := q.Dialect().UpsertSetting(key, string(raw), now)
		if _, err := q.Execute(ctx, query, args...); err != nil {
			return fmt.Errorf("writing setting %s: %w", key, err)
		}
		return nil
	})
}

// Delete removes key and reports whether it existed.
func (s *Settings) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	res, err := s.m.Execute(ctx,
		"DELETE FROM site_settings WHERE key = "+s.m.Dialect().Placeholder(1), key)
	if err != nil {
		return false, fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return res.Affected > 0, nil
}

func checkKey(key string) error {
	if key == "" || len(key) > maxSettingKeyLength {
		return types.ErrInvalidKey
	}
	return nil
}
