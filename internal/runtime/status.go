package runtime

import (
	"github.com/aretw0/hivemesh/pkg/domain"
)

// Status returns a snapshot of the hive.
func (o *Orchestrator) Status() domain.Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	reg := make(map[string]domain.MeshEntry, len(o.registry))
	for id, e := range o.registry {
		reg[id] = domain.MeshEntry{Port: e.Port, Routes: append([]string(nil), e.Routes...)}
	}
	return domain.Status{
		ID:         o.id,
		Booted:     o.booted,
		Mesh:       o.mesh.Clone(),
		ShardCount: len(o.shards),
		Registry:   reg,
	}
}

// ListShards returns every shard in registration order.
func (o *Orchestrator) ListShards() []domain.ShardSummary {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]domain.ShardSummary, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.shards[id].summary())
	}
	return out
}

// Shard returns the summary of one shard.
func (o *Orchestrator) Shard(id string) (domain.ShardSummary, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s, ok := o.shards[id]
	if !ok {
		return domain.ShardSummary{}, false
	}
	return s.summary(), true
}

// ResolvePort returns the first registered shard declaring port.
func (o *Orchestrator) ResolvePort(port int) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, id := range o.order {
		if o.shards[id].def.Port == port {
			return id, true
		}
	}
	return "", false
}
