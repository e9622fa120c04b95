package main

import (
	"fmt"

	"github.com/aretw0/hivemesh"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of hivemesh",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hivemesh version %s\n", hivemesh.Version)
		},
	}
}
