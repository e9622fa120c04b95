// Package definition turns raw hive and shard definitions into canonical trees and
// typed domain values.
//
// Definition keys may be written plain ("id") or with the reserved prefix
// character ("@id"). Normalize strips the prefix recursively so the rest of the
// system only ever sees plain names; AddPrefixes produces the prefixed wire form.
package definition

import (
	"fmt"
	"sort"
	"strings"
)

// Prefix is the reserved key prefix of the wire form.
const Prefix = "@"

// Normalize returns a copy of tree with every object key stripped of leading
// prefix characters, recursively over objects and arrays.
// When a plain key and a prefixed key collide, the plain key wins; among prefixed
// keys the one with fewer prefix characters wins. Normalize is idempotent.
func Normalize(tree any) any {
	switch t := tree.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		var prefixed []string
		for k, v := range t {
			if strings.HasPrefix(k, Prefix) {
				prefixed = append(prefixed, k)
				continue
			}
			out[k] = Normalize(v)
		}
		sort.Slice(prefixed, func(i, j int) bool {
			if len(prefixed[i]) != len(prefixed[j]) {
				return len(prefixed[i]) < len(prefixed[j])
			}
			return prefixed[i] < prefixed[j]
		})
		for _, k := range prefixed {
			plain := strings.TrimLeft(k, Prefix)
			if _, taken := out[plain]; taken {
				continue
			}
			out[plain] = Normalize(t[k])
		}
		return out
	case map[any]any:
		converted := make(map[string]any, len(t))
		for k, v := range t {
			converted[fmt.Sprint(k)] = v
		}
		return Normalize(converted)
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = Normalize(v)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = Normalize(v)
		}
		return out
	}
	return tree
}

// AddPrefixes returns the prefixed wire form of tree: every key of the normalized
// tree carries exactly one prefix character.
func AddPrefixes(tree any) any {
	return prefixKeys(Normalize(tree))
}

func prefixKeys(tree any) any {
	switch t := tree.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[Prefix+k] = prefixKeys(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = prefixKeys(v)
		}
		return out
	}
	return tree
}
