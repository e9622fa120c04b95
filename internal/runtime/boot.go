package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/hivemesh/pkg/definition"
	"github.com/aretw0/hivemesh/pkg/domain"
)

func parseHive(config any) (domain.HiveConfig, error) {
	switch c := config.(type) {
	case nil:
		return domain.HiveConfig{}, nil
	case domain.HiveConfig:
		return c, nil
	case *domain.HiveConfig:
		if c == nil {
			return domain.HiveConfig{}, nil
		}
		return *c, nil
	}
	tree, err := toTree(config)
	if err != nil {
		return domain.HiveConfig{}, err
	}
	return definition.ParseHiveConfig(tree)
}

// Boot replaces the hive's shards with those in config.
//
// config may be a tree, a domain.HiveConfig, or JSON/YAML/compact text. Every
// shard is materialized before anything is replaced, so a failing boot leaves
// the previous hive intact. Mesh ports are assigned by list position.
func (o *Orchestrator) Boot(ctx context.Context, config any) error {
	cfg, err := parseHive(config)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	built := make([]*shard, 0, len(cfg.Shards))
	for _, def := range cfg.Shards {
		built = append(built, o.materialize(def))
	}

	protocol := strings.TrimSpace(cfg.Mesh.Protocol)
	if protocol == "" {
		protocol = domain.DefaultMeshProtocol
	}
	mesh := domain.MeshDescriptor{Protocol: protocol}
	for i, port := range cfg.Mesh.Ports {
		a := domain.PortAssignment{Port: port}
		if i < len(built) {
			a.ShardID = built[i].def.ID
		} else {
			o.logger.Warn("mesh port has no shard at its position", "port", port, "position", i)
		}
		mesh.Assignments = append(mesh.Assignments, a)
	}
	if n := len(cfg.Mesh.Ports); n > 0 && n < len(built) {
		o.logger.Warn("shards without a mesh port", "ports", n, "shards", len(built))
	}

	o.mu.Lock()
	removed := make([]string, 0, len(o.order))
	keep := make(map[string]bool, len(built))
	for _, s := range built {
		keep[s.def.ID] = true
	}
	for _, id := range o.order {
		if !keep[id] {
			removed = append(removed, id)
		}
	}

	o.shards = make(map[string]*shard, len(built))
	o.registry = make(map[string]domain.MeshEntry, len(built))
	o.order = nil
	if cfg.Hive != "" {
		o.id = cfg.Hive
	}
	for _, s := range built {
		o.register(s)
	}
	o.mesh = mesh
	o.booted = true
	hiveID := o.id
	count := len(o.shards)
	o.mu.Unlock()

	for _, id := range removed {
		if err := o.sessions.Delete(ctx, id); err != nil {
			o.logger.Warn("failed to clear state of removed shard", "shard", id, "err", err)
		}
	}
	for _, s := range built {
		o.afterRegister(ctx, hiveID, s)
	}

	o.logger.Info("hive booted", "hive", hiveID, "shards", count, "protocol", protocol)
	if o.hooks.OnBoot != nil {
		o.hooks.OnBoot(ctx, &domain.BootEvent{
			EventBase:  o.event(hiveID, domain.EventBoot),
			ShardCount: count,
		})
	}
	return nil
}
