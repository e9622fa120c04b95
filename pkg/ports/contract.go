package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	shardID := "contract-shard-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.ShardState{"foo": "bar", "count": 42}

		err := store.Save(ctx, shardID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, shardID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "bar", loaded["foo"])
		// JSON backed stores return numbers as float64.
		assert.EqualValues(t, 42, loaded["count"])
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, shardID, domain.ShardState{"k": "v"}))

		loaded, err := store.Load(ctx, shardID)
		require.NoError(t, err)
		loaded["k"] = "mutated"

		again, err := store.Load(ctx, shardID)
		require.NoError(t, err)
		assert.Equal(t, "v", again["k"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+shardID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, shardID, domain.ShardState{}))

		err := store.Delete(ctx, shardID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, shardID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := shardID + "-1"
		id2 := shardID + "-2"
		_ = store.Save(ctx, id1, domain.ShardState{})
		_ = store.Save(ctx, id2, domain.ShardState{})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
