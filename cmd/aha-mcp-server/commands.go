package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/aha-mcp-server/configs"
	"github.com/codex-k8s/aha-mcp-server/internal/tools"
)

func newRootCommand() *cobra.Command {
	var transport string
	root := &cobra.Command{
		Use:           "aha-mcp-server",
		Short:         "MCP server for the Aha! product management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return serve(ctx, transport)
		},
	}
	root.Flags().StringVar(&transport, "transport", "", "stdio or http (overrides AHA_TRANSPORT)")
	root.AddCommand(newToolsCommand(), newVersionCommand(), newExampleConfigCommand())
	return root
}

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server exposes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, info := range tools.Catalog() {
				mode := "read"
				if info.Mutating {
					mode = "write"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, mode, info.Title)
			}
			return w.Flush()
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "aha-mcp-server %s\n", version)
			return err
		},
	}
}

func newExampleConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "example-config [name]",
		Short: "Print an embedded example configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := configs.ExampleName
			if len(args) == 1 {
				name = args[0]
			}
			data, err := configs.Load(name)
			if err != nil {
				return fmt.Errorf("%w (available: %v)", err, configs.Names())
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
