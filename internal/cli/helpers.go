package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/schema"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// Logs always go to Stderr so Stdout stays clean for G-code.
// Without debug only warnings and errors are written.
func createLogger(w io.Writer, debug bool, format string) (*slog.Logger, error) {
	f, err := logging.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWriter(w, level, f), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// printErrors writes each joined error on its own line, with the failing keys
// of configuration errors.
func printErrors(w io.Writer, err error) {
	for _, e := range unjoin(err) {
		printSystemMessage(w, "%v", e)
	}
	if keys := schema.FailedKeys(err); len(keys) > 0 {
		printSystemMessage(w, "failing keys: %v", keys)
	}
}

// unjoin splits an errors.Join result one level deep.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		if _, cfg := err.(*domain.ConfigInvalidError); !cfg {
			return j.Unwrap()
		}
	}
	return []error{err}
}

func isInterrupted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled)
}

// handleExecutionError turns an interrupted run into a clean exit, naming the
// signal that stopped it when ctx captured one.
func handleExecutionError(ctx context.Context, w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	if isInterrupted(err) {
		if msg := interruption(ctx); msg != "" && w != nil {
			printSystemMessage(w, "%s", msg)
		}
		return nil // Exit 0 for interruptions
	}
	return err
}

func interruption(ctx context.Context) string {
	sc, ok := ctx.(*SignalContext)
	if !ok {
		return ""
	}
	switch sc.Signal() {
	case nil:
		return ""
	case syscall.SIGTERM:
		return "Terminated."
	default:
		return "Interrupted."
	}
}
