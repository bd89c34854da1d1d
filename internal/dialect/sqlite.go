package dialect

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// SQLiteTimeLayout stores timestamps as fixed-width UTC text so that
// lexical order equals chronological order.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000Z"

// SQLite is the dialect of the embedded single-file backend.
// JSON lives in a TEXT column and is read with json_extract, which returns
// native SQL values: booleans come back as 1/0.
type SQLite struct{}

// Name implements Dialect.
func (SQLite) Name() string { return types.BackendSQLite }

// DriverName implements Dialect. modernc.org/sqlite registers "sqlite".
func (SQLite) DriverName() string { return "sqlite" }

// Placeholder implements Dialect.
func (SQLite) Placeholder(int) string { return "?" }

// JSONParam implements Dialect; json() minifies and rejects malformed input.
func (SQLite) JSONParam(int) string { return "json(?)" }

// ExtractJSON implements Dialect.
func (SQLite) ExtractJSON(field string) (string, error) {
	segs, err := jsonPath(field)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("json_extract(%s, '$.%s')", ColData, strings.Join(segs, ".")), nil
}

// FilterEquals implements Dialect.
func (d SQLite) FilterEquals(field string, value any, n int) (string, []any, error) {
	if _, err := ValidateFieldName(field); err != nil {
		return "", nil, err
	}
	if col, ok := systemColumn(field); ok {
		if value == nil {
			return col + " IS NULL", nil, nil
		}
		if isTimeColumn(col) {
			t, err := timeValue(value)
			if err != nil {
				return "", nil, err
			}
			return col + " = ?", []any{d.EncodeTime(t)}, nil
		}
		return col + " = ?", []any{value}, nil
	}

	expr, err := d.ExtractJSON(field)
	if err != nil {
		return "", nil, err
	}
	if value == nil {
		return expr + " IS NULL", nil, nil
	}
	v, err := d.coerce(value)
	if err != nil {
		return "", nil, err
	}
	return expr + " = ?", []any{v}, nil
}

// coerce matches a Go value to what json_extract yields for it.
func (SQLite) coerce(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string, float64, float32, int, int32, int64, uint, uint32, uint64:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidFilter, err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: %T", types.ErrInvalidFilter, value)
}

// OrderBy implements Dialect.
func (d SQLite) OrderBy(field string, dir Direction) (string, error) {
	if err := checkDirection(dir); err != nil {
		return "", err
	}
	if _, err := ValidateFieldName(field); err != nil {
		return "", err
	}
	if col, ok := systemColumn(field); ok {
		return col + " " + string(dir), nil
	}
	expr, err := d.ExtractJSON(field)
	if err != nil {
		return "", err
	}
	return expr + " " + string(dir), nil
}

// Paginate implements Dialect. SQLite needs a LIMIT before OFFSET; -1 means
// unbounded.
func (SQLite) Paginate(limit, skip, _ int) (string, []any) {
	switch {
	case limit > 0 && skip > 0:
		return "LIMIT ? OFFSET ?", []any{limit, skip}
	case limit > 0:
		return "LIMIT ?", []any{limit}
	case skip > 0:
		return "LIMIT -1 OFFSET ?", []any{skip}
	}
	return "", nil
}

// UpsertSetting implements Dialect.
func (d SQLite) UpsertSetting(key, jsonValue string, now time.Time) (string, []any) {
	q := `INSERT INTO site_settings (key, value, updated_date)
		VALUES (?, json(?), ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_date = excluded.updated_date`
	return q, []any{key, jsonValue, d.EncodeTime(now)}
}

// DDL implements Dialect.
func (SQLite) DDL() []string {
	return sqliteDDL
}

// EncodeTime implements Dialect.
func (SQLite) EncodeTime(t time.Time) any {
	return t.UTC().Format(SQLiteTimeLayout)
}

// DecodeTime implements Dialect.
func (SQLite) DecodeTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseTimeText(v)
	case []byte:
		return parseTimeText(string(v))
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", src)
	}
}

// parseTimeText accepts the fixed-width layout and RFC 3339.
func parseTimeText(s string) (time.Time, error) {
	if t, err := time.Parse(SQLiteTimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
