package cli

import (
	"log/slog"

	"github.com/aretw0/gcoder"
	"github.com/aretw0/gcoder/pkg/observability"
)

// createEngine initializes a gcoder engine with standard CLI conventions.
func createEngine(debug bool, logger *slog.Logger) *gcoder.Engine {
	engineOpts := []gcoder.Option{gcoder.WithLogger(logger)}

	// Lifecycle events are only worth their volume when debugging.
	if debug {
		engineOpts = append(engineOpts, gcoder.WithLifecycleHooks(observability.LogHooks(logger)))
	}

	return gcoder.New(engineOpts...)
}
