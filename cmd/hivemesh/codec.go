package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/hivemesh/pkg/definition"
	"github.com/aretw0/hivemesh/pkg/scx"
	"github.com/aretw0/hivemesh/pkg/view"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [json|-]",
		Short: "Encode JSON or text into the compact form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file, _ := cmd.Flags().GetString("file"); file != "" {
				tree, err := definition.LoadFile(file)
				if err != nil {
					return err
				}
				out, err := scx.Encode(tree)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			out, err := scx.Encode(text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Encode a YAML or JSON definition file")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [compact|-]",
		Short: "Decode compact text into JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			tree, err := scx.Decode(text)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tree)
		},
	}
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <view-file|->",
		Short: "Compile a view descriptor into HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tree any
			var err error
			if len(args) > 0 && args[0] != "-" {
				tree, err = definition.LoadFile(args[0])
			} else {
				var text string
				if text, err = inputText(cmd, nil); err == nil {
					tree, err = definition.ParseText(text)
				}
			}
			if err != nil {
				return err
			}
			out, err := view.Compile(tree)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
