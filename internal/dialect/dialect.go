// Package dialect translates logical store operations into backend SQL.
// One Dialect is chosen at startup from configuration; every
// backend-specific quirk (JSON extraction, boolean encoding, parameter
// style, upsert syntax, column types) lives behind it.
package dialect

import (
	"fmt"
	"strings"
	"time"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Table and column names shared by both dialects.
const (
	TableUsers    = "users"
	TableEntities = "entities"
	TableSettings = "site_settings"

	ColID          = "id"
	ColEntityType  = "entity_type"
	ColData        = "data"
	ColCreatedBy   = "created_by"
	ColCreatedDate = "created_date"
	ColUpdatedDate = "updated_date"
)

// EntityColumns is the select list used for every entity read.
var EntityColumns = []string{ColID, ColEntityType, ColData, ColCreatedBy, ColCreatedDate, ColUpdatedDate}

// Dialect builds SQL fragments for one backend. Field arguments must
// already have passed ValidateFieldName; implementations validate again
// before interpolating.
type Dialect interface {
	// Name returns the backend name (types.BackendSQLite, types.BackendPostgres).
	Name() string

	// DriverName returns the database/sql driver to open.
	DriverName() string

	// Placeholder returns the bind marker for the n-th (1-based) parameter.
	Placeholder(n int) string

	// JSONParam returns the bind marker for a JSON document parameter.
	JSONParam(n int) string

	// ExtractJSON returns an expression yielding the unquoted scalar at field.
	ExtractJSON(field string) (string, error)

	// FilterEquals returns a predicate comparing field to value and the
	// parameters it binds, starting at position n.
	FilterEquals(field string, value any, n int) (string, []any, error)

	// OrderBy returns an ORDER BY term for field.
	OrderBy(field string, dir Direction) (string, error)

	// Paginate returns LIMIT/OFFSET clauses with parameters starting at n.
	Paginate(limit, skip, n int) (string, []any)

	// UpsertSetting returns an insert-or-update of one site setting.
	UpsertSetting(key, jsonValue string, now time.Time) (string, []any)

	// DDL returns idempotent schema statements in execution order.
	DDL() []string

	// EncodeTime converts t to the value bound for a timestamp column.
	EncodeTime(t time.Time) any

	// DecodeTime converts a scanned timestamp column to time.Time.
	DecodeTime(src any) (time.Time, error)
}

// New returns the Dialect for a configured backend name.
func New(backend string) (Dialect, error) {
	switch backend {
	case types.BackendSQLite:
		return SQLite{}, nil
	case types.BackendPostgres:
		return Postgres{}, nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}

// ParseSort splits "-field" / "field" into a validated field and direction.
// Empty input yields the default "-createdDate".
func ParseSort(sort string) (string, Direction, error) {
	if sort == "" {
		sort = types.DefaultSort
	}
	dir := Asc
	switch {
	case strings.HasPrefix(sort, "-"):
		dir = Desc
		sort = sort[1:]
	case strings.HasPrefix(sort, "+"):
		sort = sort[1:]
	}
	field, err := ValidateFieldName(sort)
	if err != nil {
		return "", "", err
	}
	return field, dir, nil
}

// systemColumn maps a logical name to a real column of the entities table.
func systemColumn(field string) (string, bool) {
	switch field {
	case types.KeyCreatedDate, ColCreatedDate:
		return ColCreatedDate, true
	case types.KeyUpdatedDate, ColUpdatedDate:
		return ColUpdatedDate, true
	case types.KeyID:
		return ColID, true
	case types.KeyCreatedBy, ColCreatedBy:
		return ColCreatedBy, true
	}
	return "", false
}

// isTimeColumn reports whether col holds a timestamp.
func isTimeColumn(col string) bool {
	return col == ColCreatedDate || col == ColUpdatedDate
}

// jsonPath validates field and splits it into path segments.
func jsonPath(field string) ([]string, error) {
	if _, err := ValidateFieldName(field); err != nil {
		return nil, err
	}
	segs := strings.Split(field, ".")
	for _, s := range segs {
		if s == "" {
			return nil, &types.FieldNameError{Name: field, Reason: "empty path segment"}
		}
	}
	return segs, nil
}

// checkDirection rejects anything but ASC or DESC.
func checkDirection(dir Direction) error {
	if dir != Asc && dir != Desc {
		return fmt.Errorf("%w: direction %q", types.ErrInvalidSort, dir)
	}
	return nil
}

// timeValue converts a filter value on a timestamp column to time.Time.
func timeValue(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", types.ErrInvalidFilter, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %T on timestamp", types.ErrInvalidFilter, value)
	}
}
