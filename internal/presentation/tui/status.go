package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/hivemesh/pkg/domain"
)

// StatusMarkdown formats a hive snapshot as a markdown document.
func StatusMarkdown(st domain.Status, shards []domain.ShardSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Hive `%s`\n\n", st.ID)
	fmt.Fprintf(&sb, "- **Booted:** %t\n", st.Booted)
	fmt.Fprintf(&sb, "- **Protocol:** %s\n", st.Mesh.Protocol)
	fmt.Fprintf(&sb, "- **Shards:** %d\n\n", st.ShardCount)

	if len(shards) > 0 {
		sb.WriteString("## Shards\n\n")
		sb.WriteString("| Shard | Port | Runtime | Routes |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, s := range shards {
			routes := "-"
			if len(s.Routes) > 0 {
				routes = "`" + strings.Join(s.Routes, "` `") + "`"
			}
			fmt.Fprintf(&sb, "| %s | %d | %s | %s |\n", s.ID, s.Port, s.Runtime, routes)
		}
		sb.WriteString("\n")
	}

	if len(st.Mesh.Assignments) > 0 {
		sb.WriteString("## Mesh Ports\n\n")
		for _, pa := range st.Mesh.Assignments {
			owner := pa.ShardID
			if owner == "" {
				owner = "_unassigned_"
			}
			fmt.Fprintf(&sb, "- `%d` → %s\n", pa.Port, owner)
		}
	}
	return sb.String()
}
