package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/hivemesh/pkg/domain"
)

// Overlay highlights shards on the generated graph.
type Overlay struct {
	// Active shards were called recently.
	Active []string
	// Unassigned shards have no mesh port by position.
	Unassigned []string
}

// GenerateMermaid renders the mesh topology as a Mermaid flowchart:
// the hive at the root, one subgraph per shard, one leaf per route.
// Static shards use a parallelogram. Shards are emitted in the order given.
func GenerateMermaid(st domain.Status, shards []domain.ShardSummary, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	hiveID := sanitizeMermaidID(st.ID)
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", hiveID, escape(st.ID))

	for _, s := range shards {
		safeID := "shard_" + sanitizeMermaidID(s.ID)
		opener, closer := "[", "]"
		if !s.Engine {
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s :%d\"%s\n", safeID, opener, escape(s.ID), s.Port, closer)
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", hiveID, escape(st.Mesh.Protocol), safeID)

		for i, route := range s.Routes {
			routeID := fmt.Sprintf("%s_r%d", safeID, i)
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", routeID, escape(route))
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, routeID)
		}
	}

	for _, pa := range st.Mesh.Assignments {
		if pa.ShardID != "" {
			continue
		}
		fmt.Fprintf(&sb, "    port_%d{{\"port %d (free)\"}}\n", pa.Port, pa.Port)
		fmt.Fprintf(&sb, "    %s -.-> port_%d\n", hiveID, pa.Port)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef unassigned fill:#eceff1,stroke:#90a4ae,stroke-dasharray:4,color:#000;\n")
		writeClass(&sb, overlay.Active, "active")
		writeClass(&sb, overlay.Unassigned, "unassigned")
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class shard_%s %s;\n", safeID, class)
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", ":", "_", " ", "_").Replace(id)
}
