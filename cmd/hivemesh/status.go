package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/hivemesh/internal/cli"
	"github.com/aretw0/hivemesh/internal/presentation/graph"
	"github.com/aretw0/hivemesh/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Boot a hive and print its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			app, err := cli.Build(cmd.Context(), hiveOptions(cmd))
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			st := app.Hive.Status()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"status": st, "shards": app.Hive.ListShards()})
			}

			md := tui.StatusMarkdown(st, app.Hive.ListShards())
			if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				rendered, err := tui.NewRenderer()(md)
				if err == nil {
					md = rendered
				}
			}
			fmt.Fprint(out, md)
			return nil
		},
	}
	addHiveFlags(cmd)
	cmd.Flags().Bool("json", false, "Print the raw status as JSON")
	return cmd
}

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the mesh topology as a Mermaid diagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.Build(cmd.Context(), hiveOptions(cmd))
			if err != nil {
				return err
			}
			defer app.Close()

			st := app.Hive.Status()
			var overlay *graph.Overlay
			if withOverlay, _ := cmd.Flags().GetBool("overlay"); withOverlay {
				assigned := make(map[string]bool)
				for _, pa := range st.Mesh.Assignments {
					assigned[pa.ShardID] = true
				}
				overlay = &graph.Overlay{}
				for _, s := range app.Hive.ListShards() {
					if !assigned[s.ID] {
						overlay.Unassigned = append(overlay.Unassigned, s.ID)
					}
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(st, app.Hive.ListShards(), overlay))
			return nil
		},
	}
	addHiveFlags(cmd)
	cmd.Flags().Bool("overlay", false, "Highlight shards without a mesh port")
	return cmd
}
