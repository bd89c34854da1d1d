package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"
)

// Reserved keys are managed by the store and never persisted inside Data.
const (
	KeyID          = "id"
	KeyCreatedDate = "createdDate"
	KeyUpdatedDate = "updatedDate"
	KeyCreatedBy   = "createdBy"
)

// ReservedKeys lists every key stripped from caller input before persistence.
var ReservedKeys = []string{KeyID, KeyCreatedDate, KeyUpdatedDate, KeyCreatedBy}

// IsReservedKey reports whether key is managed by the store.
func IsReservedKey(key string) bool {
	return slices.Contains(ReservedKeys, key)
}

// DecodeJSON unmarshals one JSON value into v, keeping numbers as
// json.Number so integers beyond 2^53 survive a read-modify-write cycle.
func DecodeJSON(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level JSON value")
	}
	return nil
}

// Record is one stored entity: system columns plus an open data mapping.
type Record struct {
	ID          string         // UUID v7, generated on creation.
	EntityType  string         // Caller-chosen discriminator, immutable.
	Data        map[string]any // Caller fields, never holding reserved keys.
	CreatedBy   *string        // Owning user id, nil when anonymous.
	CreatedDate time.Time      // Set once on creation.
	UpdatedDate time.Time      // Refreshed on every update.
}

// Flatten returns the logical record: data keys with system keys merged over.
func (r *Record) Flatten() map[string]any {
	out := make(map[string]any, len(r.Data)+4)
	for k, v := range r.Data {
		out[k] = v
	}
	out[KeyID] = r.ID
	out[KeyCreatedDate] = r.CreatedDate.UTC().Format(time.RFC3339Nano)
	out[KeyUpdatedDate] = r.UpdatedDate.UTC().Format(time.RFC3339Nano)
	if r.CreatedBy != nil {
		out[KeyCreatedBy] = *r.CreatedBy
	} else {
		out[KeyCreatedBy] = nil
	}
	return out
}

// MarshalJSON encodes the record in its flat logical form.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Flatten())
}

// UnmarshalJSON decodes a flat logical record. The entity type is not part
// of the flat form and is left untouched.
func (r *Record) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := DecodeJSON(b, &m); err != nil {
		return err
	}
	if id, ok := m[KeyID].(string); ok {
		r.ID = id
	}
	if s, ok := m[KeyCreatedDate].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", KeyCreatedDate, err)
		}
		r.CreatedDate = t
	}
	if s, ok := m[KeyUpdatedDate].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", KeyUpdatedDate, err)
		}
		r.UpdatedDate = t
	}
	if s, ok := m[KeyCreatedBy].(string); ok {
		r.CreatedBy = &s
	}
	r.Data = StripReserved(m)
	return nil
}

// StripReserved returns a copy of data without reserved keys.
func StripReserved(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if IsReservedKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}
