package dsl

import (
	"fmt"

	"github.com/aretw0/hivemesh/pkg/adapters/memory"
	"github.com/aretw0/hivemesh/pkg/domain"
)

// Builder manages the hive construction.
type Builder struct {
	id       string
	protocol string
	ports    []int
	shards   []*ShardBuilder
	index    map[string]*ShardBuilder
}

// New creates a new hive builder. An empty id lets the orchestrator generate one.
func New(id string) *Builder {
	return &Builder{
		id:    id,
		index: make(map[string]*ShardBuilder),
	}
}

// Protocol sets the mesh transport label.
func (b *Builder) Protocol(p string) *Builder {
	b.protocol = p
	return b
}

// Ports declares the mesh ports explicitly, in positional order.
func (b *Builder) Ports(ports ...int) *Builder {
	b.ports = append([]int(nil), ports...)
	return b
}

// Shard returns the builder for id, creating it on first use.
func (b *Builder) Shard(id string) *ShardBuilder {
	if sb, ok := b.index[id]; ok {
		return sb
	}
	sb := &ShardBuilder{
		def:     domain.ShardDefinition{ID: id},
		builder: b,
	}
	b.index[id] = sb
	b.shards = append(b.shards, sb)
	return sb
}

// Build returns the hive definition.
func (b *Builder) Build() domain.HiveConfig {
	cfg := domain.HiveConfig{
		Hive: b.id,
		Mesh: domain.MeshConfig{Protocol: b.protocol},
	}
	for _, sb := range b.shards {
		cfg.Shards = append(cfg.Shards, sb.Build())
	}
	if b.ports != nil {
		cfg.Mesh.Ports = append([]int(nil), b.ports...)
	} else {
		for _, s := range cfg.Shards {
			port := s.Port
			if port == 0 {
				port = domain.DefaultShardPort
			}
			cfg.Mesh.Ports = append(cfg.Mesh.Ports, port)
		}
	}
	return cfg
}

// Loader returns the shards as a definition loader, for use with
// hivemesh.WithDefinitionLoader.
func (b *Builder) Loader() (*memory.Loader, error) {
	defs := make([]domain.ShardDefinition, 0, len(b.shards))
	for _, sb := range b.shards {
		defs = append(defs, sb.Build())
	}
	loader, err := memory.NewFromDefinitions(defs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
