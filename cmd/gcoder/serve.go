package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/gcoder"
	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/internal/presentation/tui"
	httpAdapter "github.com/aretw0/gcoder/pkg/adapters/http"
	"github.com/aretw0/gcoder/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stateless HTTP server",
	Long:  `Exposes compilation, validation and requirements as a JSON API over HTTP, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		debug, _ := cmd.Flags().GetBool("debug")
		logFormat, _ := cmd.Flags().GetString("log-format")

		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return err
		}
		level := logging.LevelFor(debug)
		logger := logging.New(level, format)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)

		engineOpts := []gcoder.Option{
			gcoder.WithLogger(logger),
			gcoder.WithLifecycleHooks(metrics.Hooks()),
		}
		if debug {
			engineOpts = append(engineOpts, gcoder.WithLifecycleHooks(observability.LogHooks(logger)))
		}
		engine := gcoder.New(engineOpts...)

		handler := httpAdapter.NewHandler(engine,
			httpAdapter.WithGatherer(reg),
			httpAdapter.WithLogger(logger))

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			if tui.IsTerminal(os.Stdout) {
				tui.PrintBanner(os.Stdout, gcoder.Version)
			}
			fmt.Printf("Starting gcoder Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("gcoder Server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
