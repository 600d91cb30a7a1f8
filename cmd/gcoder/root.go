package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gcoder",
	Short: "gcoder compiles sliced toolpaths into G-code",
	Long: `gcoder turns layered toolpath geometry into G-code programs for
multi-extruder 3D printers, driven by a machine configuration file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "gcoder.yaml", "Machine configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log lifecycle events to stderr")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: 'text' or 'json'")
}
