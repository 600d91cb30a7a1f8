package coder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/gcoder/internal/compiler"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/pipeline"
	"github.com/aretw0/gcoder/pkg/ports"
	"github.com/aretw0/gcoder/pkg/registry"
)

// Stage compiles geometry payloads into instruction payloads.
type Stage struct {
	lc       *pipeline.Lifecycle
	reg      *registry.Registry
	compiler *compiler.Compiler
}

var _ ports.Stage = (*Stage)(nil)

// Option configures a Stage.
type Option func(*stageOptions)

type stageOptions struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// WithLogger sets the logger used by the stage and its compiler.
func WithLogger(l *slog.Logger) Option {
	return func(o *stageOptions) { o.logger = l }
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(o *stageOptions) { o.hooks = o.hooks.Merge(h) }
}

// New creates an uninitialized G-coder stage validating against reg.
// The stage requirements are registered in reg if missing; a nil reg gets a private registry.
func New(reg *registry.Registry, opts ...Option) *Stage {
	var o stageOptions
	for _, opt := range opts {
		opt(&o)
	}
	if reg == nil {
		reg = registry.NewRegistry()
	}
	if _, ok := reg.Requirements(Kind); !ok {
		Register(reg)
	}
	return &Stage{
		lc:  pipeline.NewLifecycle(Kind, domain.KindGeometry, pipeline.WithLogger(o.logger), pipeline.WithHooks(o.hooks)),
		reg: reg,
	}
}

func (s *Stage) Kind() string                { return Kind }
func (s *Stage) Accepts() domain.PayloadKind { return domain.KindGeometry }
func (s *Stage) Emits() domain.PayloadKind   { return domain.KindInstruction }
func (s *Stage) State() domain.StageState    { return s.lc.State() }

// Config returns the active configuration, or nil when uninitialized.
func (s *Stage) Config() *domain.Configuration {
	if s.compiler == nil {
		return nil
	}
	return s.compiler.Config()
}

// Validate checks doc against the registered requirements.
func (s *Stage) Validate(doc config.Document) error {
	return s.reg.Validate(Kind, doc)
}

// Init validates doc and binds the stage to its configuration and downstream stages.
// On failure the stage stays uninitialized.
func (s *Stage) Init(ctx context.Context, doc config.Document, downstream []ports.Stage) error {
	if err := s.lc.CheckInit(ctx); err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return s.lc.Reject(ctx, pipeline.OpInit, err)
	}
	cfg, err := config.Decode(doc)
	if err != nil {
		return s.lc.Reject(ctx, pipeline.OpInit, fmt.Errorf("%w: %w", domain.ErrConfigInvalid, err))
	}

	s.compiler = compiler.New(cfg, compiler.WithLogger(s.lc.Logger()))
	return s.lc.Init(ctx, downstream)
}

// Start propagates Start downstream, then emits the opening payloads.
func (s *Stage) Start(ctx context.Context) error {
	if err := s.lc.CheckStart(ctx); err != nil {
		return err
	}
	opening, err := s.compiler.Opening()
	if err != nil {
		return s.lc.Reject(ctx, pipeline.OpStart, err)
	}
	if err := s.lc.Start(ctx); err != nil {
		return err
	}

	var errs []error
	for _, p := range opening {
		if err := s.lc.Emit(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Accept converts one layer and forwards the result.
// A layer referencing an unconfigured extruder is rejected and nothing is emitted.
func (s *Stage) Accept(ctx context.Context, p domain.Payload) error {
	if err := s.lc.CheckAccept(ctx, p); err != nil {
		return err
	}
	out, err := s.compiler.Paths(p.(*domain.GeometryPayload))
	if err != nil {
		return s.lc.Reject(ctx, pipeline.OpAccept, err)
	}
	s.lc.Accepted(ctx)
	return s.lc.Emit(ctx, out)
}

// Finish emits the footer, marked final, and propagates Finish downstream.
func (s *Stage) Finish(ctx context.Context) error {
	if err := s.lc.CheckFinish(ctx); err != nil {
		return err
	}
	emitErr := s.lc.Emit(ctx, s.compiler.Footer())
	return errors.Join(emitErr, s.lc.Finish(ctx))
}

// Deinit releases the configuration. An open stream is closed with a final
// abort payload carrying the cooldown sequence; Finish is not propagated.
func (s *Stage) Deinit(ctx context.Context) error {
	if err := s.lc.CheckDeinit(ctx); err != nil {
		return err
	}
	var emitErr error
	if s.lc.Open() {
		s.lc.Logger().Warn("deinit with open stream, emitting abort payload")
		emitErr = s.lc.Emit(ctx, s.compiler.Abort())
	}
	s.compiler = nil
	return errors.Join(emitErr, s.lc.Deinit(ctx))
}
