package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/hivemesh/pkg/adapters/memory"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_SaveCopies(t *testing.T) {
	store := memory.NewStore()
	state := domain.ShardState{"n": 1}
	require.NoError(t, store.Save(context.Background(), "s", state))

	state["n"] = 2
	loaded, err := store.Load(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded["n"])
}

func TestLoader(t *testing.T) {
	l := memory.NewLoader("⟁i⟁a", map[string]any{"id": "b"})
	defs, err := l.LoadDefinitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	typed, err := memory.NewFromDefinitions(domain.ShardDefinition{ID: "users", Port: 3001})
	require.NoError(t, err)
	defs, err = typed.LoadDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "users", defs[0].(map[string]any)["id"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.LoadDefinitions(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
