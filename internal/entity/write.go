package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leoashcraft/County-Connect-sub009/internal/conn"
	"github.com/leoashcraft/County-Connect-sub009/internal/dialect"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// stamp returns the current instant at the precision both backends keep.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// insertSQL returns the entity insert statement for d.
func insertSQL(d dialect.Dialect) string {
	return fmt.Sprintf(
		"INSERT INTO entities (id, entity_type, data, created_by, created_date, updated_date) VALUES (%s, %s, %s, %s, %s, %s)",
		d.Placeholder(1), d.Placeholder(2), d.JSONParam(3), d.Placeholder(4), d.Placeholder(5), d.Placeholder(6))
}

// Create implements types.EntityStore.
func (s *Store) Create(ctx context.Context, entityType string, data map[string]any, ownerID *string) (*types.Record, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, err
	}
	return s.create(ctx, s.m, entityType, data, ownerID)
}

// create inserts through q and reads the row back through q.
func (s *Store) create(ctx context.Context, q conn.Querier, entityType string, data map[string]any, ownerID *string) (*types.Record, error) {
	doc, err := json.Marshal(types.StripReserved(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}

	d := q.Dialect()
	id := newUUID()
	now := d.EncodeTime(s.stamp())
	var owner any
	if ownerID != nil {
		owner = *ownerID
	}

	if _, err := q.Execute(ctx, insertSQL(d), id, entityType, string(doc), owner, now, now); err != nil {
		return nil, fmt.Errorf("inserting %s: %w", entityType, err)
	}

	r, err := findByID(ctx, q, entityType, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("reading back %s %s: row missing after insert", entityType, id)
	}
	return r, nil
}

// Update implements types.EntityStore. The stored data is read, merged with
// patch and written back; UpdatedDate always moves strictly forward.
func (s *Store) Update(ctx context.Context, entityType, id string, patch map[string]any) (*types.Record, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	existing, err := findByID(ctx, s.m, entityType, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	doc, err := json.Marshal(Merge(existing.Data, patch))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}

	now := s.stamp()
	if !now.After(existing.UpdatedDate) {
		now = existing.UpdatedDate.Add(time.Microsecond)
	}

	d := s.m.Dialect()
	query := fmt.Sprintf("UPDATE entities SET data = %s, updated_date = %s WHERE id = %s AND entity_type = %s",
		d.JSONParam(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4))
	res, err := s.m.Execute(ctx, query, string(doc), d.EncodeTime(now), id, entityType)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", entityType, id, err)
	}
	if res.Affected == 0 {
		// Deleted between the read and the write.
		return nil, nil
	}
	return findByID(ctx, s.m, entityType, id)
}

// Delete implements types.EntityStore.
func (s *Store) Delete(ctx context.Context, entityType, id string) (bool, error) {
	if err := checkEntityType(entityType); err != nil {
		return false, err
	}
	if id == "" {
		return false, types.ErrInvalidID
	}
	d := s.m.Dialect()
	query := fmt.Sprintf("DELETE FROM entities WHERE id = %s AND entity_type = %s", d.Placeholder(1), d.Placeholder(2))
	res, err := s.m.Execute(ctx, query, id, entityType)
	if err != nil {
		return false, fmt.Errorf("deleting %s %s: %w", entityType, id, err)
	}
	return res.Affected > 0, nil
}

// DeleteMany implements types.EntityStore. An empty query removes every
// record of the type.
func (s *Store) DeleteMany(ctx context.Context, entityType string, query map[string]any) (int64, error) {
	if err := checkEntityType(entityType); err != nil {
		return 0, err
	}
	b := newBuilder(s.m.Dialect(), entityType)
	if err := b.filter(query); err != nil {
		return 0, err
	}
	res, err := s.m.Execute(ctx, "DELETE FROM entities"+b.whereSQL(), b.args...)
	if err != nil {
		return 0, fmt.Errorf("deleting %s: %w", entityType, err)
	}
	s.log.Info().Str("entity_type", entityType).Int64("removed", res.Affected).Msg("delete many")
	return res.Affected, nil
}

// BulkCreate implements types.EntityStore. Items are created one by one;
// when item i fails, items before it stay persisted and are returned with
// the error.
func (s *Store) BulkCreate(ctx context.Context, entityType string, items []map[string]any, ownerID *string) ([]*types.Record, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, err
	}
	out := make([]*types.Record, 0, len(items))
	for i, item := range items {
		r, err := s.create(ctx, s.m, entityType, item, ownerID)
		if err != nil {
			s.log.Warn().Err(err).Str("entity_type", entityType).
				Int("created", len(out)).Int("failed_index", i).Msg("bulk create stopped")
			return out, fmt.Errorf("bulk create item %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// BulkCreateAtomic implements types.EntityStore. Either every item is
// created or none is.
func (s *Store) BulkCreateAtomic(ctx context.Context, entityType string, items []map[string]any, ownerID *string) ([]*types.Record, error) {
	if err := checkEntityType(entityType); err != nil {
		return nil, err
	}
	var out []*types.Record
	err := s.m.WithTransaction(ctx, func(q conn.Querier) error {
		out = make([]*types.Record, 0, len(items))
		for i, item := range items {
			r, err := s.create(ctx, q, entityType, item, ownerID)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
