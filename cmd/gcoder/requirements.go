package main

import (
	"os"

	"github.com/aretw0/gcoder/internal/cli"
	"github.com/aretw0/gcoder/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var requirementsCmd = &cobra.Command{
	Use:   "requirements [kind...]",
	Short: "List the configuration keys each stage kind requires",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		return cli.PrintRequirements(os.Stdout, args, !raw && tui.IsTerminal(os.Stdout))
	},
}

func init() {
	rootCmd.AddCommand(requirementsCmd)
	requirementsCmd.Flags().Bool("raw", false, "Print markdown without rendering")
}
