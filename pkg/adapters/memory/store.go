// Package memory provides in-process implementations of the hive ports.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/hivemesh/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.ShardState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.ShardState),
	}
}

// Save persists a copy of the state.
func (s *Store) Save(ctx context.Context, shardID string, state domain.ShardState) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[shardID] = copied
	return nil
}

// Load retrieves a copy of the state so callers can't mutate the store.
func (s *Store) Load(ctx context.Context, shardID string) (domain.ShardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[shardID]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return state.Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, shardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, shardID)
	return nil
}

// List returns the shards with stored state, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
