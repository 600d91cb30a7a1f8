package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/gcoder"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gcoder",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gcoder version %s\n", strings.TrimSpace(gcoder.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
