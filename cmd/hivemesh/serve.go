package main

import (
	"fmt"
	"net"

	"github.com/aretw0/hivemesh/internal/cli"
	"github.com/aretw0/hivemesh/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Boot a hive and serve the mesh router",
		Long: `Boots the hive and exposes it over HTTP:
  /mesh/{shard}/{path}   routed calls
  /mesh/ws               websocket push channel
  /status, /shards, /boot, /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			quiet, _ := cmd.Flags().GetBool("no-banner")

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			app, err := cli.Build(ctx, hiveOptions(cmd))
			if err != nil {
				return err
			}
			defer app.Close()

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
			if err != nil {
				return fmt.Errorf("failed to listen on port %d: %w", port, err)
			}

			out := cmd.OutOrStdout()
			if !quiet {
				tui.PrintBanner(out)
			}
			st := app.Hive.Status()
			fmt.Fprintf(out, "Hive %s: %d shards on http://localhost:%d/mesh/\n", st.ID, st.ShardCount, port)

			if err := app.Serve(ctx, ln); err != nil {
				return err
			}
			if sig := ctx.Signal(); sig != nil {
				fmt.Fprintf(out, "\nStopped on %v\n", sig)
			}
			return nil
		},
	}
	addHiveFlags(cmd)
	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().Bool("no-banner", false, "Do not print the banner")
	return cmd
}
