package main

import (
	"context"

	"github.com/aretw0/gcoder/internal/cli"
	"github.com/spf13/cobra"
)

// compileCmd represents the compile command
var compileCmd = &cobra.Command{
	Use:   "compile [layers]",
	Short: "Compile a layers file into G-code",
	Long: `Streams every layer of the geometry file through the G-code compiler.
The program goes to stdout, to a file (--output) or to a Redis list (--redis).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.CompileOptions{LayersPath: args[0]}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		opts.Output, _ = cmd.Flags().GetString("output")
		opts.RedisURL, _ = cmd.Flags().GetString("redis")
		opts.Job, _ = cmd.Flags().GetString("job")
		opts.TTL, _ = cmd.Flags().GetDuration("ttl")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.LogFormat, _ = cmd.Flags().GetString("log-format")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Interval, _ = cmd.Flags().GetDuration("interval")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.Execute(sigCtx, opts)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringP("output", "o", cli.StdoutPath, "Output file, or '-' for stdout")
	compileCmd.Flags().String("redis", "", "Redis URL to push the program to (e.g. redis://localhost:6379/0)")
	compileCmd.Flags().String("job", "", "Job name keying the Redis list")
	compileCmd.Flags().Duration("ttl", 0, "Expiry of the Redis job keys (0 keeps them)")
	compileCmd.Flags().BoolP("quiet", "q", false, "Suppress status messages")
	compileCmd.Flags().BoolP("watch", "w", false, "Recompile whenever the inputs change")
	compileCmd.Flags().Duration("interval", 0, "Quiet period after a change before recompiling in watch mode")
}
