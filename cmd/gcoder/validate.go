package main

import (
	"os"

	"github.com/aretw0/gcoder/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config]",
	Short: "Check a machine configuration",
	Long:  `Validates the configuration against the compiler requirements and lists every failing key.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts cli.ValidateOptions
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		if !cmd.Flags().Changed("config") && len(args) > 0 {
			opts.ConfigPath = args[0]
		}
		opts.SchemaPath, _ = cmd.Flags().GetString("schema")
		return cli.Validate(os.Stdout, opts)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("schema", "", "Requirement schema in flat JSON form (default: the compiler requirements)")
}
