package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/hivemesh/internal/presentation/graph"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	st := domain.Status{
		ID: "hive-1",
		Mesh: domain.MeshDescriptor{
			Protocol: "virtual",
			Assignments: []domain.PortAssignment{
				{Port: 3001, ShardID: "users"},
				{Port: 3002, ShardID: ""},
			},
		},
	}
	shards := []domain.ShardSummary{
		{ID: "users", Port: 3001, Engine: true, Routes: []string{"GET:/list", "POST:/add"}},
		{ID: "static-files", Port: 3003, Routes: []string{"GET:/"}},
	}

	tests := []struct {
		name     string
		overlay  *graph.Overlay
		contains []string
		absent   []string
	}{
		{
			name: "Topology",
			contains: []string{
				"graph TD",
				`hive_1(("hive-1"))`,
				`shard_users["users :3001"]`,
				`hive_1 -- "virtual" --> shard_users`,
				`shard_users_r1["POST:/add"]`,
				`shard_static_files[/"static-files :3003"/]`,
				`port_3002{{"port 3002 (free)"}}`,
			},
			absent: []string{"classDef"},
		},
		{
			name:    "Overlay",
			overlay: &graph.Overlay{Active: []string{"users", "users"}, Unassigned: []string{"static-files"}},
			contains: []string{
				"classDef active",
				"class shard_users active;",
				"class shard_static_files unassigned;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(st, shards, tt.overlay)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, no := range tt.absent {
				assert.NotContains(t, out, no)
			}
			assert.Equal(t, strings.Count(out, "class shard_users active;"), boolInt(tt.overlay != nil))
		})
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
