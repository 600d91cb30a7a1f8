package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/ports"
)

// Pipeline drives a linear chain of stages: the first stage receives the
// payloads, each stage forwards to the next.
type Pipeline struct {
	stages []ports.Stage
	logger *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the driver logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New chains stages head first. Neighbouring stages must agree on the payload
// kind passed between them.
func New(stages []ports.Stage, opts ...PipelineOption) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, errors.New("pipeline needs at least one stage")
	}
	for i := 0; i+1 < len(stages); i++ {
		up, down := stages[i], stages[i+1]
		if up.Emits() == "" {
			return nil, fmt.Errorf("stage %q emits nothing but is followed by %q", up.Kind(), down.Kind())
		}
		if up.Emits() != down.Accepts() {
			return nil, fmt.Errorf("stage %q emits %s but %q accepts %s",
				up.Kind(), up.Emits(), down.Kind(), down.Accepts())
		}
	}

	p := &Pipeline{stages: stages, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Stages returns the chain, head first.
func (p *Pipeline) Stages() []ports.Stage { return p.stages }

// Run initializes every stage with doc, streams payloads into the head stage
// and tears the chain down.
//
// Rejected payloads (config mismatch, wrong kind) are reported in the returned
// error and the stream continues. A protocol violation or a cancelled context
// stops the stream; the chain is still deinitialized, which closes it with an
// abort payload.
func (p *Pipeline) Run(ctx context.Context, doc config.Document, payloads iter.Seq[domain.Payload]) error {
	if err := p.Init(ctx, doc); err != nil {
		return err
	}

	rejected, err := p.stream(ctx, payloads)
	if derr := p.Deinit(ctx); derr != nil {
		err = errors.Join(err, derr)
	}
	return errors.Join(append(rejected, err)...)
}

// Init initializes the stages tail first, giving each its successor as downstream.
// On failure, stages already initialized are deinitialized again.
func (p *Pipeline) Init(ctx context.Context, doc config.Document) error {
	for i := len(p.stages) - 1; i >= 0; i-- {
		var downstream []ports.Stage
		if i+1 < len(p.stages) {
			downstream = []ports.Stage{p.stages[i+1]}
		}
		if err := p.stages[i].Init(ctx, doc, downstream); err != nil {
			for _, s := range p.stages[i+1:] {
				_ = s.Deinit(ctx)
			}
			return fmt.Errorf("init %s: %w", p.stages[i].Kind(), err)
		}
	}
	return nil
}

// Deinit tears the chain down head first, so abort payloads reach stages that
// are still initialized.
func (p *Pipeline) Deinit(ctx context.Context) error {
	var errs []error
	for _, s := range p.stages {
		if s.State() == domain.StateUninitialized {
			continue
		}
		if err := s.Deinit(ctx); err != nil {
			errs = append(errs, fmt.Errorf("deinit %s: %w", s.Kind(), err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) stream(ctx context.Context, payloads iter.Seq[domain.Payload]) ([]error, error) {
	head := p.stages[0]
	if err := head.Start(ctx); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	var rejected []error
	n := 0
	for payload := range payloads {
		if err := ctx.Err(); err != nil {
			return rejected, err
		}
		err := head.Accept(ctx, payload)
		if err == nil {
			n++
			continue
		}
		if domain.IsFatal(err) {
			return rejected, fmt.Errorf("accept: %w", err)
		}
		p.logger.Warn("payload rejected", "index", n+len(rejected), "error", err)
		rejected = append(rejected, fmt.Errorf("payload %d: %w", n+len(rejected), err))
	}

	if err := head.Finish(ctx); err != nil {
		return rejected, fmt.Errorf("finish: %w", err)
	}
	p.logger.Debug("stream finished", "accepted", n, "rejected", len(rejected))
	return rejected, nil
}
