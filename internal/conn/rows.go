package conn

import (
	"fmt"
	"strconv"
)

// Row is one result row keyed by column name. Values are what the driver
// produced: string, []byte, int64, float64, bool, time.Time or nil.
type Row map[string]any

// Result reports the effect of an Execute call.
type Result struct {
	Affected int64
	// InsertedID is the driver's last insert id, or 0 where the backend has
	// none (PostgreSQL, text primary keys).
	InsertedID int64
}

// String returns the column as text. NULL and missing columns yield "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// NullString returns nil for NULL, otherwise a pointer to the text value.
func (r Row) NullString(col string) *string {
	if r[col] == nil {
		return nil
	}
	s := r.String(col)
	return &s
}

// Bytes returns the column as a byte slice.
func (r Row) Bytes(col string) []byte {
	switch v := r[col].(type) {
	case nil:
		return nil
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return []byte(fmt.Sprint(v))
	}
}

// Int64 returns the column as an integer.
func (r Row) Int64(col string) (int64, error) {
	switch v := r[col].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	case nil:
		return 0, fmt.Errorf("column %q is NULL", col)
	default:
		return 0, fmt.Errorf("column %q: unsupported integer type %T", col, v)
	}
}
