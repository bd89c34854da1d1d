package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ListOptions controls ordering and pagination of List and Filter.
// Sort is a field name, descending when prefixed with "-"; empty means
// "-createdDate". Limit 0 means no limit.
type ListOptions struct {
	Sort  string
	Limit int
	Skip  int
}

// DefaultSort is applied when ListOptions.Sort is empty.
const DefaultSort = "-" + KeyCreatedDate

// EntityStore is the document-store API over the entities table.
// Every operation is scoped to one entity type. Absence is reported as a nil
// record or false, never as an error.
type EntityStore interface {
	// FindByID returns the record or nil when no such id exists for the type.
	FindByID(ctx context.Context, entityType, id string) (*Record, error)

	// List returns records of the type ordered and paginated by opts.
	List(ctx context.Context, entityType string, opts ListOptions) ([]*Record, error)

	// Filter returns records whose fields equal every value in query.
	Filter(ctx context.Context, entityType string, query map[string]any, opts ListOptions) ([]*Record, error)

	// Count returns how many records match query.
	Count(ctx context.Context, entityType string, query map[string]any) (int64, error)

	// Create persists a new record and returns it as read back.
	Create(ctx context.Context, entityType string, data map[string]any, ownerID *string) (*Record, error)

	// Update shallow-merges patch over the stored data. It returns nil when
	// the id does not exist for the type.
	Update(ctx context.Context, entityType, id string, patch map[string]any) (*Record, error)

	// Delete removes the record and reports whether a row was removed.
	Delete(ctx context.Context, entityType, id string) (bool, error)

	// DeleteMany removes every record matching query and returns the count.
	DeleteMany(ctx context.Context, entityType string, query map[string]any) (int64, error)

	// BulkCreate creates items one at a time. Records created before a
	// failure stay persisted and are returned alongside the error.
	BulkCreate(ctx context.Context, entityType string, items []map[string]any, ownerID *string) ([]*Record, error)

	// BulkCreateAtomic creates all items or none.
	BulkCreateAtomic(ctx context.Context, entityType string, items []map[string]any, ownerID *string) ([]*Record, error)

	// Export writes every record of the type as JSON lines.
	Export(ctx context.Context, entityType string, w io.Writer) (int, error)

	// Import upserts JSON lines written by Export.
	Import(ctx context.Context, r io.Reader) (int, error)

	// Close releases the backend handle.
	Close() error
}

// SettingStore persists small process-wide configuration values.
type SettingStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) (bool, error)
}

// Store operation errors.
var (
	ErrInvalidFieldName  = errors.New("invalid field name")
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrInvalidID         = errors.New("invalid entity ID")
	ErrInvalidData       = errors.New("invalid entity data")
	ErrInvalidFilter     = errors.New("invalid filter value type")
	ErrInvalidSort       = errors.New("invalid sort specification")
	ErrInvalidKey        = errors.New("invalid setting key")
)

// Backend errors.
var (
	ErrConnection  = errors.New("backend connection failed")
	ErrTransaction = errors.New("transaction failed")
	ErrClosed      = errors.New("store is closed")
)

// FieldNameError reports a field name refused before any SQL was built.
type FieldNameError struct {
	Name   string
	Reason string
}

func (e *FieldNameError) Error() string {
	name := e.Name
	if len(name) > 40 {
		name = name[:40] + "..."
	}
	return fmt.Sprintf("invalid field name %q: %s", name, e.Reason)
}

// Is lets errors.Is match ErrInvalidFieldName.
func (e *FieldNameError) Is(target error) bool {
	return target == ErrInvalidFieldName
}
