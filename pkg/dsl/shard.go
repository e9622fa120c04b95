package dsl

import (
	"maps"
	"net/http"

	"github.com/aretw0/hivemesh/pkg/domain"
)

// ShardBuilder provides a fluent API for configuring a shard.
type ShardBuilder struct {
	def     domain.ShardDefinition
	builder *Builder
}

// Port sets the virtual port the shard declares.
func (s *ShardBuilder) Port(port int) *ShardBuilder {
	s.def.Port = port
	return s
}

// Runtime sets the runtime kind.
func (s *ShardBuilder) Runtime(kind string) *ShardBuilder {
	s.def.Runtime = kind
	return s
}

// Static marks the shard as engine-less; its routes are acknowledged only.
func (s *ShardBuilder) Static() *ShardBuilder {
	return s.Runtime(domain.RuntimeStatic)
}

// Route binds METHOD:path to handler, which is glyph source or a handler name.
func (s *ShardBuilder) Route(method, path string, handler any) *ShardBuilder {
	s.def.API = append(s.def.API, domain.RouteDefinition{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
	return s
}

// Get binds a GET route.
func (s *ShardBuilder) Get(path string, handler any) *ShardBuilder {
	return s.Route(http.MethodGet, path, handler)
}

// Post binds a POST route.
func (s *ShardBuilder) Post(path string, handler any) *ShardBuilder {
	return s.Route(http.MethodPost, path, handler)
}

// Put binds a PUT route.
func (s *ShardBuilder) Put(path string, handler any) *ShardBuilder {
	return s.Route(http.MethodPut, path, handler)
}

// Delete binds a DELETE route.
func (s *ShardBuilder) Delete(path string, handler any) *ShardBuilder {
	return s.Route(http.MethodDelete, path, handler)
}

// View sets the view descriptor tree.
func (s *ShardBuilder) View(tree any) *ShardBuilder {
	s.def.View = tree
	return s
}

// State adds an initial state value.
func (s *ShardBuilder) State(key string, value any) *ShardBuilder {
	if s.def.State == nil {
		s.def.State = make(map[string]any)
	}
	s.def.State[key] = value
	return s
}

// Shard switches to another shard of the same hive.
func (s *ShardBuilder) Shard(id string) *ShardBuilder {
	return s.builder.Shard(id)
}

// Hive returns the parent builder.
func (s *ShardBuilder) Hive() *Builder {
	return s.builder
}

// Build returns a copy of the shard definition.
func (s *ShardBuilder) Build() domain.ShardDefinition {
	def := s.def
	def.API = append([]domain.RouteDefinition(nil), s.def.API...)
	def.State = maps.Clone(s.def.State)
	return def
}
