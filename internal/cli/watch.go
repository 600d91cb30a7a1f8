package cli

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/gcoder"
	"github.com/aretw0/gcoder/internal/presentation/tui"
	"github.com/fsnotify/fsnotify"
)

// RunWatch recompiles every time the configuration or the layers file changes.
// Compile failures are reported and the watcher keeps waiting for a fix.
// It returns when ctx is cancelled.
func RunWatch(ctx context.Context, engine *gcoder.Engine, opts CompileOptions) error {
	opts.defaults()
	logger, err := createLogger(opts.Stderr, opts.Debug, opts.LogFormat)
	if err != nil {
		return err
	}
	if !opts.Quiet {
		tui.PrintBanner(opts.Stderr, gcoder.Version)
	}

	paths := []string{opts.ConfigPath, opts.LayersPath}
	watcher, err := watchParents(paths...)
	if err != nil {
		return err
	}
	defer watcher.Close()
	logger.Info("Starting Watcher", "config", opts.ConfigPath, "layers", opts.LayersPath)

	// Parent directories are watched, so editors that save by rename are
	// seen; events for other files in them are dropped here.
	watched := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
	}

	last := ""
	rebuild := func() error {
		sum, err := fingerprint(paths...)
		if err != nil {
			logger.Warn("Watch fingerprint failed", "err", err)
			return nil
		}
		if sum == last {
			logger.Debug("Content unchanged, skipping")
			return nil
		}
		if last != "" && !opts.Quiet {
			printSystemMessage(opts.Stderr, "Change detected, recompiling.")
		}
		last = sum
		if err := compileOnce(ctx, engine, opts); err != nil {
			if isInterrupted(err) {
				return err
			}
			logger.Error("Compile failed", "err", err)
		}
		if !opts.Quiet {
			printSystemMessage(opts.Stderr, "Waiting for changes...")
		}
		return nil
	}
	if err := rebuild(); err != nil {
		return err
	}

	debounce := time.NewTimer(opts.Interval)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping watcher")
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debug("Watch event", "file", event.Name, "op", event.Op.String())
				debounce.Reset(opts.Interval)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		case <-debounce.C:
			if err := rebuild(); err != nil {
				return err
			}
		}
	}
}

// watchParents watches the directory of every path once.
func watchParents(paths ...string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	added := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		dir := filepath.Dir(abs)
		if added[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		added[dir] = true
	}
	return watcher, nil
}

// fingerprint hashes the content of every path, in order.
// Watch uses it to drop events that leave the content unchanged.
func fingerprint(paths ...string) (string, error) {
	h := md5.New()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
		// Separator so moving bytes between files changes the sum.
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
