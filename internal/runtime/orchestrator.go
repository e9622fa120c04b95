package runtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/hivemesh/internal/logging"
	"github.com/aretw0/hivemesh/pkg/adapters/memory"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/glyph"
	"github.com/aretw0/hivemesh/pkg/ports"
	"github.com/aretw0/hivemesh/pkg/session"
	"github.com/google/uuid"
)

// Orchestrator owns the shards of one hive.
//
// The shard map, the derived mesh registry and the registration order are
// only mutated together under mu.
type Orchestrator struct {
	mu       sync.RWMutex
	id       string
	booted   bool
	mesh     domain.MeshDescriptor
	shards   map[string]*shard
	order    []string
	registry map[string]domain.MeshEntry

	logger      *slog.Logger
	store       ports.StateStore
	locker      ports.DistributedLocker
	natives     glyph.Registry
	hooks       domain.LifecycleHooks
	callTimeout time.Duration
	maxSteps    int
	sessions    *session.Manager
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStateStore sets where shard state bags are kept. Defaults to memory.
func WithStateStore(s ports.StateStore) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.store = s
		}
	}
}

// WithLocker serializes calls to a shard across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

// WithRegistry exposes native functions to handler programs.
func WithRegistry(r glyph.Registry) Option {
	return func(o *Orchestrator) { o.natives = r }
}

// WithLifecycleHooks registers observability hooks. Repeated use merges them.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(o *Orchestrator) { o.hooks = o.hooks.Merge(h) }
}

// WithCallTimeout bounds every routed call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.callTimeout = d }
}

// WithMaxSteps bounds the instructions a single handler may dispatch.
func WithMaxSteps(n int) Option {
	return func(o *Orchestrator) { o.maxSteps = n }
}

// WithID fixes the hive identifier instead of generating one.
func WithID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.id = id
		}
	}
}

// New creates an Orchestrator with no shards.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		id:       "hive-" + uuid.NewString(),
		mesh:     domain.MeshDescriptor{Protocol: domain.DefaultMeshProtocol},
		shards:   make(map[string]*shard),
		registry: make(map[string]domain.MeshEntry),
		logger:   logging.NewNop(),
		store:    memory.NewStore(),
	}
	for _, opt := range opts {
		opt(o)
	}

	sessionOpts := []session.Option{session.WithLogger(o.logger)}
	if o.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(o.locker))
	}
	o.sessions = session.NewManager(o.store, sessionOpts...)
	return o
}

// ID returns the hive identifier.
func (o *Orchestrator) ID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.id
}

// Sessions exposes the shard lock and state manager.
func (o *Orchestrator) Sessions() *session.Manager {
	return o.sessions
}

func (o *Orchestrator) event(hiveID string, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, HiveID: hiveID}
}
