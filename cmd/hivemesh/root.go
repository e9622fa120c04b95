package main

import (
	"io"
	"os"
	"strings"

	"github.com/aretw0/hivemesh/internal/cli"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hivemesh",
		Short:         "hivemesh runs virtual service shards behind an in-process mesh",
		Long:          `hivemesh boots a hive of shards from YAML, JSON or compact definitions and routes calls to their glyph handlers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error, off (default from HIVEMESH_LOG_LEVEL)")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging and lifecycle tracing")

	root.AddCommand(
		newServeCmd(),
		newCallCmd(),
		newEncodeCmd(),
		newDecodeCmd(),
		newRenderCmd(),
		newStatusCmd(),
		newGraphCmd(),
		newValidateCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return root
}

// addHiveFlags registers the flags every hive-building command shares.
func addHiveFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Hive definition file (YAML, JSON or compact)")
	cmd.Flags().String("shards", "", "Directory of shard documents loaded after boot")
	cmd.Flags().String("redis", os.Getenv(cli.EnvRedisAddr), "Redis address for shard state (default from HIVEMESH_REDIS_ADDR)")
	cmd.Flags().String("state-key", os.Getenv(cli.EnvStateKey), "AES-256 key (hex or base64) encrypting shard state at rest (default from HIVEMESH_STATE_KEY)")
	cmd.Flags().Duration("call-timeout", 0, "Upper bound for each routed call (0 disables)")
}

func hiveOptions(cmd *cobra.Command) cli.Options {
	var opts cli.Options
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.ShardDir, _ = cmd.Flags().GetString("shards")
	opts.RedisAddr, _ = cmd.Flags().GetString("redis")
	opts.StateKey, _ = cmd.Flags().GetString("state-key")
	opts.CallTimeout, _ = cmd.Flags().GetDuration("call-timeout")
	opts.LogLevel, _ = cmd.Flags().GetString("log-level")
	opts.Debug, _ = cmd.Flags().GetBool("debug")
	return opts
}

// inputText returns args[0], or stdin when no argument is given or it is "-".
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
