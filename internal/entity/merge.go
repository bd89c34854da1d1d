package entity

import "github.com/leoashcraft/County-Connect-sub009/pkg/types"

// Merge returns a new mapping holding existing with patch's top-level keys
// written over it. Reserved keys in patch are ignored. Neither input is
// modified. Nested objects are replaced, not merged.
func Merge(existing, patch map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(patch))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range patch {
		if types.IsReservedKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}
