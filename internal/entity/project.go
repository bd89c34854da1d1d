package entity

import (
	"strings"

	"github.com/leoashcraft/County-Connect-sub009/internal/dialect"
	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// Project returns the flat form of r restricted to fields. Dotted fields
// select nested values and keep their nesting in the output. An empty field
// list returns the whole flat record. Missing fields are omitted.
func Project(r *types.Record, fields []string) (map[string]any, error) {
	if err := dialect.ValidateFieldNames(fields...); err != nil {
		return nil, err
	}
	flat := r.Flatten()
	if len(fields) == 0 {
		return flat, nil
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		segs := strings.Split(f, ".")
		v, ok := lookup(flat, segs)
		if !ok {
			continue
		}
		place(out, segs, v)
	}
	return out, nil
}

// lookup walks segs through nested objects.
func lookup(m map[string]any, segs []string) (any, bool) {
	var cur any = m
	for _, s := range segs {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[s]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// place stores v at segs, creating intermediate objects.
func place(m map[string]any, segs []string, v any) {
	for _, s := range segs[:len(segs)-1] {
		next, ok := m[s].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[s] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = v
}
