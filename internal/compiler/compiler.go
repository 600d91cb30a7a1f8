package compiler

import (
	"log/slog"

	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/pkg/domain"
)

// Compiler converts toolpaths into instruction lines for one machine configuration.
// It holds no per-stream state; identical inputs give identical output.
type Compiler struct {
	cfg    *domain.Configuration
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a compiler for cfg. The configuration must not be modified afterwards.
func New(cfg *domain.Configuration, opts ...Option) *Compiler {
	c := &Compiler{
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration the compiler was built with.
func (c *Compiler) Config() *domain.Configuration {
	return c.cfg
}

func payload(phase domain.Phase, lines []string) *domain.InstructionPayload {
	return &domain.InstructionPayload{Phase: phase, Lines: lines}
}
