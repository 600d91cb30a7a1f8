package main

import (
	"context"
	"os"

	"github.com/aretw0/gcoder/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [layers]",
	Short: "Export the pipeline visualization",
	Long: `Outputs a Mermaid diagram (graph LR) of the compile pipeline.
Given a layers file, the pipeline is run once and stages are styled by outcome.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts cli.GraphOptions
		if len(args) > 0 {
			opts.LayersPath = args[0]
			opts.ConfigPath, _ = cmd.Flags().GetString("config")
		}
		return cli.PrintGraph(context.Background(), os.Stdout, opts)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
