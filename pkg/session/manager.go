package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/hivemesh/internal/logging"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed shard lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates shard access, ensuring calls to one shard never overlap.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(shardID) after unlocking.
func (m *Manager) acquire(shardID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[shardID]
	if !exists {
		entry = &lockEntry{}
		m.locks[shardID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(shardID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[shardID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, shardID)
	}
}

// WithLock executes a function while holding the lock for the shard.
func (m *Manager) WithLock(ctx context.Context, shardID string, fn func(context.Context) error) error {
	entry := m.acquire(shardID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(shardID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, shardID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"shard_id", shardID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Do runs fn under the shard lock with the shard's state bag. The bag is saved
// when fn succeeds and changed it.
func (m *Manager) Do(ctx context.Context, shardID string, fn func(context.Context, *Bag) error) error {
	return m.WithLock(ctx, shardID, func(ctx context.Context) error {
		state, err := m.store.Load(ctx, shardID)
		if err != nil && !errors.Is(err, domain.ErrStateNotFound) {
			return fmt.Errorf("failed to load shard state: %w", err)
		}

		bag := NewBag(state)
		if err := fn(ctx, bag); err != nil {
			return err
		}
		if !bag.Dirty() {
			return nil
		}
		if err := m.store.Save(ctx, shardID, bag.state); err != nil {
			return fmt.Errorf("failed to save shard state: %w", err)
		}
		return nil
	})
}

// Load returns the stored state of a shard, empty when none was saved.
func (m *Manager) Load(ctx context.Context, shardID string) (domain.ShardState, error) {
	state, err := m.store.Load(ctx, shardID)
	if errors.Is(err, domain.ErrStateNotFound) {
		return domain.ShardState{}, nil
	}
	return state, err
}

// Delete removes the shard's state under its lock.
func (m *Manager) Delete(ctx context.Context, shardID string) error {
	return m.WithLock(ctx, shardID, func(ctx context.Context) error {
		return m.store.Delete(ctx, shardID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}
