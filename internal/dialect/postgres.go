package dialect

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// Postgres is the dialect of the networked relational backend.
// JSON lives in a JSONB column and is read with ->> / #>>, which return text:
// booleans come back as "true"/"false" and numbers as their JSON spelling.
type Postgres struct{}

// Name implements Dialect.
func (Postgres) Name() string { return types.BackendPostgres }

// DriverName implements Dialect. github.com/lib/pq registers "postgres".
func (Postgres) DriverName() string { return "postgres" }

// Placeholder implements Dialect.
func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

// JSONParam implements Dialect.
func (Postgres) JSONParam(n int) string { return "$" + strconv.Itoa(n) + "::jsonb" }

// ExtractJSON implements Dialect.
func (Postgres) ExtractJSON(field string) (string, error) {
	segs, err := jsonPath(field)
	if err != nil {
		return "", err
	}
	if len(segs) == 1 {
		return fmt.Sprintf("%s->>'%s'", ColData, segs[0]), nil
	}
	return fmt.Sprintf("%s#>>'{%s}'", ColData, strings.Join(segs, ",")), nil
}

// FilterEquals implements Dialect.
func (d Postgres) FilterEquals(field string, value any, n int) (string, []any, error) {
	if _, err := ValidateFieldName(field); err != nil {
		return "", nil, err
	}
	ph := d.Placeholder(n)
	if col, ok := systemColumn(field); ok {
		if value == nil {
			return col + " IS NULL", nil, nil
		}
		if isTimeColumn(col) {
			t, err := timeValue(value)
			if err != nil {
				return "", nil, err
			}
			return col + " = " + ph, []any{d.EncodeTime(t)}, nil
		}
		return col + " = " + ph, []any{value}, nil
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
	return expr + " = " + ph, []any{v}, nil
}

// coerce renders a Go value the way ->> prints the matching JSON value.
func (Postgres) coerce(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case json.Number:
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: %T", types.ErrInvalidFilter, value)
}

// OrderBy implements Dialect.
func (d Postgres) OrderBy(field string, dir Direction) (string, error) {
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

// Paginate implements Dialect.
func (d Postgres) Paginate(limit, skip, n int) (string, []any) {
	var parts []string
	var args []any
	if limit > 0 {
		parts = append(parts, "LIMIT "+d.Placeholder(n))
		args = append(args, limit)
		n++
	}
	if skip > 0 {
		parts = append(parts, "OFFSET "+d.Placeholder(n))
		args = append(args, skip)
	}
	return strings.Join(parts, " "), args
}

// UpsertSetting implements Dialect.
func (d Postgres) UpsertSetting(key, jsonValue string, now time.Time) (string, []any) {
	q := `INSERT INTO site_settings (key, value, updated_date)
		VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_date = EXCLUDED.updated_date`
	return q, []any{key, jsonValue, d.EncodeTime(now)}
}

// DDL implements Dialect.
func (Postgres) DDL() []string {
	return postgresDDL
}

// EncodeTime implements Dialect. TIMESTAMPTZ keeps microseconds.
func (Postgres) EncodeTime(t time.Time) any {
	return t.UTC().Truncate(time.Microsecond)
}

// DecodeTime implements Dialect.
func (Postgres) DecodeTime(src any) (time.Time, error) {
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
