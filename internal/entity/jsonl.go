package entity

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/leoashcraft/County-Connect-sub009/internal/conn"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// maxLineSize bounds one JSONL line on import.
const maxLineSize = 16 << 20

// line is one exported record: the entity type plus the flat record.
type line struct {
	Type   string          `json:"type"`
	Record json.RawMessage `json:"record"`
}

// Export implements types.EntityStore. Records are written oldest first.
func (s *Store) Export(ctx context.Context, entityType string, w io.Writer) (int, error) {
	recs, err := s.List(ctx, entityType, types.ListOptions{Sort: types.KeyCreatedDate})
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	for i, r := range recs {
		raw, err := json.Marshal(r)
		if err != nil {
			return i, fmt.Errorf("encoding %s: %w", r.ID, err)
		}
		b, err := json.Marshal(line{Type: r.EntityType, Record: raw})
		if err != nil {
			return i, fmt.Errorf("encoding %s: %w", r.ID, err)
		}
		if _, err := bw.Write(b); err != nil {
			return i, fmt.Errorf("writing record: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return i, fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flushing buffer: %w", err)
	}
	return len(recs), nil
}

// ExportFile writes the export of entityType to path using the temp-file,
// fsync, rename pattern, so readers never see a partial file.
func ExportFile(ctx context.Context, st types.EntityStore, entityType, path string) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := st.Export(ctx, entityType, tmp)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// Import implements types.EntityStore. Each line replaces the record with
// the same id, keeping its timestamps and owner. All lines are applied in
// one transaction. Empty and malformed lines are skipped.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var recs []*types.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		rec, err := parseLine(b)
		if err != nil {
			s.log.Warn().Err(err).Int("line", lineNo).Msg("skipping import line")
			continue
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scanning import: %w", err)
	}

	err := s.m.WithTransaction(ctx, func(q conn.Querier) error {
		for _, rec := range recs {
			if err := replace(ctx, q, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("records", len(recs)).Msg("import applied")
	return len(recs), nil
}

// parseLine decodes and checks one exported line.
func parseLine(b []byte) (*types.Record, error) {
	var l line
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, err
	}
	if err := checkEntityType(l.Type); err != nil {
		return nil, err
	}
	if len(l.Record) == 0 {
		return nil, fmt.Errorf("%w: missing record", types.ErrInvalidData)
	}
	rec := &types.Record{}
	if err := json.Unmarshal(l.Record, rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, types.ErrInvalidID
	}
	if rec.CreatedDate.IsZero() || rec.UpdatedDate.IsZero() {
		return nil, fmt.Errorf("%w: missing timestamps", types.ErrInvalidData)
	}
	rec.EntityType = l.Type
	return rec, nil
}

// replace deletes any row with rec's id and inserts rec as given.
func replace(ctx context.Context, q conn.Querier, rec *types.Record) error {
	d := q.Dialect()
	if _, err := q.Execute(ctx, "DELETE FROM entities WHERE id = "+d.Placeholder(1), rec.ID); err != nil {
		return fmt.Errorf("replacing %s: %w", rec.ID, err)
	}

	doc, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	var owner any
	if rec.CreatedBy != nil {
		owner = *rec.CreatedBy
	}
	_, err = q.Execute(ctx, insertSQL(d), rec.ID, rec.EntityType, string(doc), owner,
		d.EncodeTime(rec.CreatedDate), d.EncodeTime(rec.UpdatedDate))
	if err != nil {
		return fmt.Errorf("inserting %s: %w", rec.ID, err)
	}
	return nil
}
