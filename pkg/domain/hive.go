package domain

import (
	"sort"
	"strings"
)

// HiveConfig is the decoded boot definition of a Hive.
type HiveConfig struct {
	Hive   string            `json:"hive" yaml:"hive" mapstructure:"hive"`
	Shards []ShardDefinition `json:"shards" yaml:"shards" mapstructure:"shards"`
	Mesh   MeshConfig        `json:"mesh" yaml:"mesh" mapstructure:"mesh"`
}

// MeshConfig declares the transport label and the virtual ports of a Hive.
// Ports are assigned to shards by list position, not by identifier.
type MeshConfig struct {
	Protocol string `json:"protocol" yaml:"protocol" mapstructure:"protocol"`
	Ports    []int  `json:"ports" yaml:"ports" mapstructure:"ports"`
}

// ShardDefinition declares a virtual service.
type ShardDefinition struct {
	ID      string            `json:"id" yaml:"id" mapstructure:"id"`
	Port    int               `json:"port" yaml:"port" mapstructure:"port"`
	Runtime string            `json:"runtime" yaml:"runtime" mapstructure:"runtime"`
	API     []RouteDefinition `json:"api" yaml:"api" mapstructure:"api"`
	View    any               `json:"view,omitempty" yaml:"view,omitempty" mapstructure:"view"`
	State   map[string]any    `json:"state,omitempty" yaml:"state,omitempty" mapstructure:"state"`
}

// RouteDefinition binds METHOD and path to a handler.
// Handler is either glyph program source or an opaque name resolved at call time.
type RouteDefinition struct {
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
	Method  string `json:"method" yaml:"method" mapstructure:"method"`
	Handler any    `json:"handler" yaml:"handler" mapstructure:"handler"`
}

// RouteKey builds the exact-match lookup key for a route.
func RouteKey(method, path string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = DefaultRouteMethod
	}
	return method + RouteKeySeparator + path
}

// PortAssignment maps one virtual port to a shard identifier.
// ShardID is empty when the mesh declared more ports than shards.
type PortAssignment struct {
	Port    int    `json:"port"`
	ShardID string `json:"shard_id"`
}

// MeshDescriptor is the configured routing fabric of a Hive.
type MeshDescriptor struct {
	Protocol    string           `json:"protocol"`
	Assignments []PortAssignment `json:"assignments"`
}

// Clone returns a deep copy of the descriptor.
func (m MeshDescriptor) Clone() MeshDescriptor {
	out := MeshDescriptor{Protocol: m.Protocol}
	if m.Assignments != nil {
		out.Assignments = append([]PortAssignment(nil), m.Assignments...)
	}
	return out
}

// MeshEntry is one row of the derived mesh registry.
type MeshEntry struct {
	Port   int      `json:"port"`
	Routes []string `json:"routes"`
}

// ShardSummary is a read-only projection of a shard.
type ShardSummary struct {
	ID      string   `json:"id"`
	Port    int      `json:"port"`
	Runtime string   `json:"runtime"`
	Routes  []string `json:"routes"`
	View    any      `json:"view,omitempty"`
	Engine  bool     `json:"engine"`
}

// Status is a snapshot of the Hive.
type Status struct {
	ID         string               `json:"id"`
	Booted     bool                 `json:"booted"`
	Mesh       MeshDescriptor       `json:"mesh"`
	ShardCount int                  `json:"shard_count"`
	Registry   map[string]MeshEntry `json:"registry"`
}

// SortedShardIDs returns the registry keys in lexical order.
func (s Status) SortedShardIDs() []string {
	ids := make([]string, 0, len(s.Registry))
	for id := range s.Registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
