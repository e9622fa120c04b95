package domain

import "maps"

// ShardState is the key/value memory a shard keeps between calls.
type ShardState map[string]any

// Get returns the value stored under key.
func (s ShardState) Get(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// Set stores v under key.
func (s ShardState) Set(key string, v any) {
	s[key] = v
}

// Clone returns a shallow copy. A nil state clones to an empty one.
func (s ShardState) Clone() ShardState {
	out := make(ShardState, len(s))
	maps.Copy(out, s)
	return out
}
