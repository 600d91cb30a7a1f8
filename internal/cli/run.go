package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/gcoder"
	"github.com/aretw0/gcoder/pkg/adapters/file"
	"github.com/aretw0/gcoder/pkg/adapters/redis"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// StdoutPath selects standard output as the compile destination.
const StdoutPath = "-"

// CompileOptions contains all the configuration for the compile command.
type CompileOptions struct {
	ConfigPath string
	LayersPath string
	Output     string // file path, or "-" for Stdout

	// RedisURL sends the program to a Redis list instead of Output.
	RedisURL string
	Job      string
	TTL      time.Duration

	Debug     bool
	LogFormat string
	Quiet     bool
	Watch     bool
	Interval  time.Duration // watch debounce window

	Stdout io.Writer
	Stderr io.Writer
}

func (o *CompileOptions) defaults() {
	if o.Output == "" {
		o.Output = StdoutPath
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Interval <= 0 {
		o.Interval = 100 * time.Millisecond
	}
}

// Execute handles the 'compile' command logic, dispatching to a single run or Watch mode.
func Execute(ctx context.Context, opts CompileOptions) error {
	opts.defaults()
	if opts.RedisURL != "" && opts.Job == "" {
		return fmt.Errorf("--redis requires --job")
	}

	logger, err := createLogger(opts.Stderr, opts.Debug, opts.LogFormat)
	if err != nil {
		return err
	}
	engine := createEngine(opts.Debug, logger)

	report := opts.Stderr
	if opts.Quiet {
		report = nil
	}
	if opts.Watch {
		return handleExecutionError(ctx, report, RunWatch(ctx, engine, opts))
	}
	return handleExecutionError(ctx, report, compileOnce(ctx, engine, opts))
}

func compileOnce(ctx context.Context, engine *gcoder.Engine, opts CompileOptions) error {
	doc, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	// Fail before any output is opened.
	if err := engine.Validate(doc); err != nil {
		if !opts.Quiet {
			printErrors(opts.Stderr, err)
		}
		return err
	}
	layers, err := file.LoadGeometry(opts.LayersPath)
	if err != nil {
		return err
	}

	sink, done, err := openSink(engine, opts)
	if err != nil {
		return err
	}
	runErr := engine.Compile(ctx, doc, layers, sink)
	closeErr := done()

	if runErr != nil && !opts.Quiet && !isInterrupted(runErr) {
		printErrors(opts.Stderr, runErr)
	}
	if runErr == nil && !opts.Quiet {
		printSystemMessage(opts.Stderr, "Compiled %d layers to %s.", len(layers), destination(opts))
	}
	return errors.Join(runErr, closeErr)
}

// openSink picks the terminal stage for opts. done releases resources the sink does not own.
func openSink(engine *gcoder.Engine, opts CompileOptions) (ports.Stage, func() error, error) {
	nop := func() error { return nil }

	switch {
	case opts.RedisURL != "":
		ropts, err := backend.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(ropts)
		sink := redis.NewFromClient(client, opts.Job,
			redis.WithTTL(opts.TTL),
			redis.WithLifecycle(engine.StageOptions()...))
		return sink, client.Close, nil
	case opts.Output == StdoutPath:
		return file.NewWriter(opts.Stdout, engine.StageOptions()...), nop, nil
	default:
		sink, err := file.Create(opts.Output, engine.StageOptions()...)
		if err != nil {
			return nil, nil, err
		}
		return sink, nop, nil
	}
}

func destination(opts CompileOptions) string {
	switch {
	case opts.RedisURL != "":
		return "redis job '" + opts.Job + "'"
	case opts.Output == StdoutPath:
		return "stdout"
	default:
		return "'" + opts.Output + "'"
	}
}
