package gcoder

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/pkg/adapters/file"
	"github.com/aretw0/gcoder/pkg/adapters/memory"
	"github.com/aretw0/gcoder/pkg/adapters/redis"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/pipeline"
	"github.com/aretw0/gcoder/pkg/ports"
	"github.com/aretw0/gcoder/pkg/registry"
	"github.com/aretw0/gcoder/pkg/schema"
	"github.com/aretw0/gcoder/pkg/stages/coder"
)

// Engine is the high-level entry point of the library.
// It owns the requirement registry and builds stages sharing one logger and one set of hooks.
type Engine struct {
	reg    *registry.Registry
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks on every stage the engine builds.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry shares an existing requirement registry instead of creating one.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.reg = reg
	}
}

// New creates an Engine and registers the built-in stage kinds.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.reg == nil {
		eng.reg = registry.NewRegistry()
	}

	coder.Register(eng.reg)
	memory.Register(eng.reg)
	file.Register(eng.reg)
	redis.Register(eng.reg)
	return eng
}

// Registry returns the requirement registry shared by the engine's stages.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Requirements returns the configuration schema declared by a stage kind.
func (e *Engine) Requirements(kind string) (schema.Schema, bool) {
	return e.reg.Requirements(kind)
}

// Validate checks doc against the G-coder requirements.
func (e *Engine) Validate(doc config.Document) error {
	return e.reg.Validate(coder.Kind, doc)
}

// Coder builds an uninitialized G-coder stage.
func (e *Engine) Coder() *coder.Stage {
	return coder.New(e.reg, coder.WithLogger(e.logger), coder.WithHooks(e.hooks))
}

// StageOptions returns lifecycle options carrying the engine logger and hooks,
// for sinks built outside the engine.
func (e *Engine) StageOptions() []pipeline.Option {
	return []pipeline.Option{pipeline.WithLogger(e.logger), pipeline.WithHooks(e.hooks)}
}

// Pipeline chains a fresh G-coder stage in front of sink.
func (e *Engine) Pipeline(sink ports.Stage) (*pipeline.Pipeline, error) {
	return pipeline.New([]ports.Stage{e.Coder(), sink}, pipeline.WithPipelineLogger(e.logger))
}

// Compile streams layers through a G-coder stage into sink.
// Rejected layers are reported in the returned error; the remaining layers are still compiled.
func (e *Engine) Compile(ctx context.Context, doc config.Document, layers []*domain.GeometryPayload, sink ports.Stage) error {
	p, err := e.Pipeline(sink)
	if err != nil {
		return err
	}
	e.logger.Info("compiling", "layers", len(layers), "sink", sink.Kind())
	return p.Run(ctx, doc, slices.Values(file.Payloads(layers)))
}

// CompileText compiles layers and returns the instruction text.
// The text is returned together with any rejection errors.
func (e *Engine) CompileText(ctx context.Context, doc config.Document, layers []*domain.GeometryPayload) (string, error) {
	sink := memory.NewCollector(e.StageOptions()...)
	err := e.Compile(ctx, doc, layers, sink)
	return sink.Text(), err
}

// CompileToWriter compiles layers into w.
func (e *Engine) CompileToWriter(ctx context.Context, doc config.Document, layers []*domain.GeometryPayload, w io.Writer) error {
	return e.Compile(ctx, doc, layers, file.NewWriter(w, e.StageOptions()...))
}

// CompileFiles loads a configuration and a geometry file and writes the program to out.
func (e *Engine) CompileFiles(ctx context.Context, configPath, geometryPath string, out io.Writer) error {
	doc, err := config.Load(configPath)
	if err != nil {
		return err
	}
	layers, err := file.LoadGeometry(geometryPath)
	if err != nil {
		return err
	}
	return e.CompileToWriter(ctx, doc, layers, out)
}
