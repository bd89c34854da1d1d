package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMarshalJSON_Flat(t *testing.T) {
	owner := "user-1"
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC)
	r := Record{
		ID:          "rec-1",
		EntityType:  "Restaurant",
		Data:        map[string]any{"name": "Alpha", "open": true},
		CreatedBy:   &owner,
		CreatedDate: ts,
		UpdatedDate: ts,
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "rec-1", m["id"])
	assert.Equal(t, "Alpha", m["name"])
	assert.Equal(t, true, m["open"])
	assert.Equal(t, "user-1", m["createdBy"])
	assert.Equal(t, "2026-03-01T12:00:00.123456Z", m["createdDate"])
	assert.NotContains(t, m, "entityType")
}

func TestRecordFlatten_SystemKeysWin(t *testing.T) {
	r := Record{
		ID:   "real",
		Data: map[string]any{"id": "spoofed"},
	}
	flat := r.Flatten()
	assert.Equal(t, "real", flat["id"])
	assert.Nil(t, flat["createdBy"])
}

func TestRecordUnmarshalJSON(t *testing.T) {
	in := `{"id":"rec-2","name":"Beta","createdBy":"u","createdDate":"2026-03-01T12:00:00.5Z","updatedDate":"2026-03-02T12:00:00Z"}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	assert.Equal(t, "rec-2", r.ID)
	assert.Equal(t, map[string]any{"name": "Beta"}, r.Data)
	require.NotNil(t, r.CreatedBy)
	assert.Equal(t, "u", *r.CreatedBy)
	assert.True(t, r.UpdatedDate.After(r.CreatedDate))
}

func TestRecordUnmarshalJSON_KeepsLargeIntegers(t *testing.T) {
	in := `{"id":"rec-3","phone":9007199254740993,"rating":4.5,"createdDate":"2026-03-01T12:00:00Z","updatedDate":"2026-03-01T12:00:00Z"}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	assert.Equal(t, json.Number("9007199254740993"), r.Data["phone"])
	assert.Equal(t, json.Number("4.5"), r.Data["rating"])

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"phone":9007199254740993`)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    any
		wantErr bool
	}{
		{name: "object", in: `{"n":1}`, want: map[string]any{"n": json.Number("1")}},
		{name: "trailing space", in: "[1] \n", want: []any{json.Number("1")}},
		{name: "string", in: `"x"`, want: "x"},
		{name: "trailing data", in: `{"n":1} x`, wantErr: true},
		{name: "two values", in: `1 2`, wantErr: true},
		{name: "invalid", in: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v any
			err := DecodeJSON([]byte(tt.in), &v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestIsReservedKey(t *testing.T) {
	for _, k := range ReservedKeys {
		assert.True(t, IsReservedKey(k), k)
	}
	assert.False(t, IsReservedKey("name"))
	assert.False(t, IsReservedKey("ID"))
}

func TestStripReserved(t *testing.T) {
	in := map[string]any{
		"id": "x", "createdDate": "d", "updatedDate": "d", "createdBy": "u",
		"name": "kept",
	}
	out := StripReserved(in)
	assert.Equal(t, map[string]any{"name": "kept"}, out)
	assert.Len(t, in, 5, "input must not be modified")
}

func TestFieldNameError(t *testing.T) {
	var err error = &FieldNameError{Name: "bad name", Reason: "illegal character"}
	assert.True(t, errors.Is(err, ErrInvalidFieldName))
	assert.Contains(t, err.Error(), "bad name")

	var fe *FieldNameError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "illegal character", fe.Reason)
}
