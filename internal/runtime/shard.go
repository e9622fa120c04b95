package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/hivemesh/pkg/definition"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/glyph"
	"github.com/google/uuid"
)

// shard is a materialized ShardDefinition. It is immutable once registered;
// replacing a shard swaps the pointer.
type shard struct {
	def    domain.ShardDefinition
	routes map[string]any
	keys   []string
	engine *glyph.Engine
}

func (s *shard) summary() domain.ShardSummary {
	return domain.ShardSummary{
		ID:      s.def.ID,
		Port:    s.def.Port,
		Runtime: s.def.Runtime,
		Routes:  append([]string(nil), s.keys...),
		View:    s.def.View,
		Engine:  s.engine != nil,
	}
}

func (s *shard) entry() domain.MeshEntry {
	return domain.MeshEntry{Port: s.def.Port, Routes: append([]string(nil), s.keys...)}
}

// materialize applies defaults, compiles routes and builds the engine.
func (o *Orchestrator) materialize(def domain.ShardDefinition) *shard {
	if def.ID == "" {
		def.ID = "shard-" + uuid.NewString()[:8]
	}
	if def.Port == 0 {
		def.Port = domain.DefaultShardPort
	}
	def.Runtime = strings.ToLower(strings.TrimSpace(def.Runtime))
	if def.Runtime == "" {
		def.Runtime = domain.RuntimeGlyph
	}

	def.API = append([]domain.RouteDefinition(nil), def.API...)

	s := &shard{def: def, routes: make(map[string]any, len(def.API))}
	for i, r := range def.API {
		if strings.TrimSpace(r.Method) == "" {
			s.def.API[i].Method = domain.DefaultRouteMethod
		}
		// Later duplicates overwrite earlier ones.
		s.routes[domain.RouteKey(r.Method, r.Path)] = compileHandler(r.Handler)
	}
	for k := range s.routes {
		s.keys = append(s.keys, k)
	}
	sort.Strings(s.keys)

	if def.Runtime == domain.RuntimeGlyph {
		opts := []glyph.Option{
			glyph.WithLogger(o.logger.With("shard", def.ID)),
			glyph.WithCapabilities(o),
			glyph.WithMaxSteps(o.maxSteps),
		}
		if o.natives != nil {
			opts = append(opts, glyph.WithRegistry(o.natives))
		}
		s.engine = glyph.NewEngine(opts...)
	}
	return s
}

// compileHandler turns program text into a Program once. Text without any
// instruction names an opaque handler.
func compileHandler(h any) any {
	switch v := h.(type) {
	case nil:
		return &glyph.Program{}
	case string:
		if p := glyph.Compile(v); len(p.Instructions) > 0 {
			return p
		}
		return glyph.Ref(strings.TrimSpace(v))
	}
	return h
}

// parseShard accepts a typed definition, a tree, or JSON/YAML/compact text.
func parseShard(v any) (domain.ShardDefinition, error) {
	switch d := v.(type) {
	case domain.ShardDefinition:
		return d, nil
	case *domain.ShardDefinition:
		if d == nil {
			return domain.ShardDefinition{}, fmt.Errorf("%w: nil shard definition", domain.ErrInvalidDefinition)
		}
		return *d, nil
	}
	tree, err := toTree(v)
	if err != nil {
		return domain.ShardDefinition{}, err
	}
	return definition.ParseShardDefinition(tree)
}

func toTree(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return definition.ParseText(t)
	case []byte:
		return definition.ParseText(string(t))
	}
	return v, nil
}

// CreateShard materializes def and registers it, replacing any shard with the
// same identifier.
func (o *Orchestrator) CreateShard(ctx context.Context, def any) (domain.ShardSummary, error) {
	sd, err := parseShard(def)
	if err != nil {
		return domain.ShardSummary{}, err
	}
	s := o.materialize(sd)

	o.mu.Lock()
	o.register(s)
	hiveID := o.id
	o.mu.Unlock()

	o.afterRegister(ctx, hiveID, s)
	return s.summary(), nil
}

// register must be called with mu held.
func (o *Orchestrator) register(s *shard) {
	id := s.def.ID
	if _, exists := o.shards[id]; !exists {
		o.order = append(o.order, id)
	}
	o.shards[id] = s
	o.registry[id] = s.entry()
}

func (o *Orchestrator) afterRegister(ctx context.Context, hiveID string, s *shard) {
	if len(s.def.State) > 0 {
		if err := o.seedState(ctx, s); err != nil {
			o.logger.Warn("failed to seed shard state", "shard", s.def.ID, "err", err)
		}
	}
	o.logger.Info("shard registered",
		"shard", s.def.ID,
		"port", s.def.Port,
		"runtime", s.def.Runtime,
		"routes", len(s.keys),
	)
	if o.hooks.OnShardCreated != nil {
		o.hooks.OnShardCreated(ctx, &domain.ShardEvent{
			EventBase: o.event(hiveID, domain.EventShardCreated),
			ShardID:   s.def.ID,
			Port:      s.def.Port,
		})
	}
}

// seedState stores the declared initial state unless the shard already has one.
// It does not take the shard lock: a handler may register its own shard.
func (o *Orchestrator) seedState(ctx context.Context, s *shard) error {
	_, err := o.store.Load(ctx, s.def.ID)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, domain.ErrStateNotFound):
		return err
	}
	return o.store.Save(ctx, s.def.ID, domain.ShardState(s.def.State).Clone())
}

// DeleteShard removes a shard from every registry and drops its state.
func (o *Orchestrator) DeleteShard(ctx context.Context, id string) error {
	o.mu.Lock()
	s, ok := o.shards[id]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrShardNotFound, id)
	}
	o.unregister(id)
	hiveID := o.id
	o.mu.Unlock()

	if err := o.sessions.Delete(ctx, id); err != nil {
		o.logger.Warn("failed to delete shard state", "shard", id, "err", err)
	}
	o.logger.Info("shard deleted", "shard", id)
	if o.hooks.OnShardDeleted != nil {
		o.hooks.OnShardDeleted(ctx, &domain.ShardEvent{
			EventBase: o.event(hiveID, domain.EventShardDeleted),
			ShardID:   id,
			Port:      s.def.Port,
		})
	}
	return nil
}

// unregister must be called with mu held.
func (o *Orchestrator) unregister(id string) {
	delete(o.shards, id)
	delete(o.registry, id)
	for i, sid := range o.order {
		if sid == id {
			o.order = append(o.order[:i:i], o.order[i+1:]...)
			break
		}
	}
	for i := range o.mesh.Assignments {
		if o.mesh.Assignments[i].ShardID == id {
			o.mesh.Assignments[i].ShardID = ""
		}
	}
}
