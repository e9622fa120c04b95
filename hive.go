package hivemesh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/hivemesh/internal/logging"
	"github.com/aretw0/hivemesh/internal/runtime"
	loamAdapter "github.com/aretw0/hivemesh/pkg/adapters/loam"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/glyph"
	"github.com/aretw0/hivemesh/pkg/ports"
)

// Version of the hivemesh module.
const Version = "0.3.0"

// Hive is the high-level entry point of the library.
// It wraps the internal orchestrator and provides a simplified API for consumers.
type Hive struct {
	orch     *runtime.Orchestrator
	loader   ports.DefinitionLoader
	shardDir string
	logger   *slog.Logger
	rtOpts   []runtime.Option
}

// Option defines a functional option for configuring the Hive.
type Option func(*Hive)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hive) {
		h.logger = logger
	}
}

// WithStateStore sets where shard state bags are kept.
func WithStateStore(s ports.StateStore) Option {
	return func(h *Hive) {
		h.rtOpts = append(h.rtOpts, runtime.WithStateStore(s))
	}
}

// WithLocker serializes calls to a shard across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(h *Hive) {
		h.rtOpts = append(h.rtOpts, runtime.WithLocker(l))
	}
}

// WithRegistry exposes native Go functions to handler programs.
func WithRegistry(r glyph.Registry) Option {
	return func(h *Hive) {
		h.rtOpts = append(h.rtOpts, runtime.WithRegistry(r))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Hive) {
		h.rtOpts = append(h.rtOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithCallTimeout bounds every routed call.
func WithCallTimeout(d time.Duration) Option {
	return func(h *Hive) {
		h.rtOpts = append(h.rtOpts, runtime.WithCallTimeout(d))
	}
}

// WithMaxSteps bounds the instructions one handler call may dispatch.
func WithMaxSteps(n int) Option {
	return func(h *Hive) {
		h.rtOpts = append(h.rtOpts, runtime.WithMaxSteps(n))
	}
}

// WithID fixes the hive identifier.
func WithID(id string) Option {
	return func(h *Hive) {
		h.rtOpts = append(h.rtOpts, runtime.WithID(id))
	}
}

// WithDefinitionLoader sets the source used by LoadDefinitions.
func WithDefinitionLoader(l ports.DefinitionLoader) Option {
	return func(h *Hive) {
		h.loader = l
	}
}

// WithShardDir loads shard documents from a Loam repository at dir.
// It is ignored when WithDefinitionLoader is also given.
func WithShardDir(dir string) Option {
	return func(h *Hive) {
		h.shardDir = dir
	}
}

// New initializes a Hive with no shards.
func New(opts ...Option) (*Hive, error) {
	h := &Hive{}
	for _, opt := range opts {
		opt(h)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if h.logger == nil {
		h.logger = logging.NewNop()
	}

	if h.loader == nil && h.shardDir != "" {
		l, err := loamAdapter.Open(h.shardDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open shard directory: %w", err)
		}
		h.loader = l
	}

	h.orch = runtime.New(append([]runtime.Option{runtime.WithLogger(h.logger)}, h.rtOpts...)...)
	return h, nil
}

// Orchestrator exposes the underlying orchestrator for adapters.
func (h *Hive) Orchestrator() *runtime.Orchestrator {
	return h.orch
}

// ID returns the hive identifier.
func (h *Hive) ID() string { return h.orch.ID() }

// Boot replaces all shards with the ones declared in config.
func (h *Hive) Boot(ctx context.Context, config any) error {
	return h.orch.Boot(ctx, config)
}

// CreateShard registers one shard definition.
func (h *Hive) CreateShard(ctx context.Context, def any) (domain.ShardSummary, error) {
	return h.orch.CreateShard(ctx, def)
}

// DeleteShard removes a shard.
func (h *Hive) DeleteShard(ctx context.Context, id string) error {
	return h.orch.DeleteShard(ctx, id)
}

// Call routes a request to a shard by identifier or virtual port.
func (h *Hive) Call(ctx context.Context, shard, method, path string, data any) (any, error) {
	return h.orch.RouteToShard(ctx, shard, method, path, data)
}

// Status returns a snapshot of the hive.
func (h *Hive) Status() domain.Status { return h.orch.Status() }

// ListShards returns every shard in registration order.
func (h *Hive) ListShards() []domain.ShardSummary { return h.orch.ListShards() }

// LoadDefinitions creates a shard for every definition the configured loader
// returns and reports how many were created. It stops at the first failure.
func (h *Hive) LoadDefinitions(ctx context.Context) (int, error) {
	if h.loader == nil {
		return 0, nil
	}
	defs, err := h.loader.LoadDefinitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load definitions: %w", err)
	}
	for i, def := range defs {
		if _, err := h.orch.CreateShard(ctx, def); err != nil {
			return i, fmt.Errorf("definition %d: %w", i, err)
		}
	}
	h.logger.Info("shard definitions loaded", "count", len(defs))
	return len(defs), nil
}
