package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/hivemesh/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "users", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	assert.True(t, mr.Exists("test:lock:users"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:users"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := first.Lock(ctx, "orders", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = second.Lock(short, "orders", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := second.Lock(ctx, "orders", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()
	assert.True(t, mr.Exists("test:lock:orders"))
}

func TestRedisLocker_StaleUnlockKeepsNewOwner(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "carts", time.Second)
	require.NoError(t, err)

	// First owner's lease expires and someone else takes the lock.
	mr.FastForward(2 * time.Second)
	unlock2, err := locker.Lock(ctx, "carts", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, unlock1(ctx))
	assert.True(t, mr.Exists("test:lock:carts"), "stale unlock must not release the new owner's lock")

	require.NoError(t, unlock2(ctx))
	assert.False(t, mr.Exists("test:lock:carts"))
}
