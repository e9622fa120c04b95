package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/hivemesh/internal/cli"
	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <shard> <path>",
		Short: "Boot a hive and route a single call",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, _ := cmd.Flags().GetString("method")
			raw, _ := cmd.Flags().GetString("data")

			var data any
			if raw != "" {
				if err := json.Unmarshal([]byte(raw), &data); err != nil {
					return fmt.Errorf("error parsing --data JSON: %w", err)
				}
			}

			app, err := cli.Build(cmd.Context(), hiveOptions(cmd))
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.Hive.Call(cmd.Context(), args[0], method, args[1], data)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	addHiveFlags(cmd)
	cmd.Flags().StringP("method", "X", "GET", "Call method")
	cmd.Flags().StringP("data", "d", "", "JSON payload")
	return cmd
}
