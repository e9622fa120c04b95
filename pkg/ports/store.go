package ports

import (
	"context"

	"github.com/aretw0/hivemesh/pkg/domain"
)

// StateStore defines the interface for persisting shard state.
type StateStore interface {
	// Save persists the state for a given shard ID.
	Save(ctx context.Context, shardID string, state domain.ShardState) error

	// Load retrieves the state for a given shard ID.
	// Returns domain.ErrStateNotFound if nothing was saved.
	Load(ctx context.Context, shardID string) (domain.ShardState, error)

	// Delete removes the state for a given shard ID.
	Delete(ctx context.Context, shardID string) error

	// List returns the IDs of shards with stored state.
	List(ctx context.Context) ([]string, error)
}
