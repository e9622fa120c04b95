package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/hivemesh/internal/validator"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file|dir]",
		Short: "Check a hive definition for consistency",
		Long: `Reports duplicate shards and ports, shadowed routes, unknown opcodes,
mesh positions that disagree with declared ports, and views that do not compile.
A directory is read as a repository of shard documents. Warnings never fail.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}
			issues, err := runValidate(cmd.Context(), target)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, i := range issues {
				fmt.Fprintln(out, i.String())
			}
			if err := validator.Err(issues); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintln(out, "Hive is valid! ✅")
			return nil
		},
	}
	return cmd
}

func runValidate(ctx context.Context, target string) ([]validator.Issue, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if info.IsDir() {
		return validator.ValidateDir(ctx, target)
	}
	return validator.ValidateFile(target)
}
