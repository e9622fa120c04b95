package main

import (
	"fmt"

	"github.com/aretw0/hivemesh"
	"github.com/aretw0/hivemesh/internal/cli"
	"github.com/aretw0/hivemesh/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Boots the hive and exposes it as an MCP server so agents can call shards as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			port, _ := cmd.Flags().GetInt("port")

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			app, err := cli.Build(ctx, hiveOptions(cmd))
			if err != nil {
				return err
			}
			defer app.Close()

			// logging.New writes to stderr, leaving stdout to JSON-RPC.
			srv := mcp.NewServer(app.Hive.Orchestrator(), hivemesh.Version, mcp.WithLogger(app.Logger))
			switch transport {
			case "stdio":
				app.Logger.Info("starting MCP server (stdio)")
				return srv.ServeStdio()
			case "sse":
				app.Logger.Info("starting MCP server (SSE)", "port", port)
				return srv.ServeSSE(ctx, port)
			default:
				return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
			}
		},
	}
	addHiveFlags(cmd)
	cmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().Int("port", 8090, "Port to listen on (only for SSE)")
	return cmd
}
