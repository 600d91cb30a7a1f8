package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/pipeline"
	"github.com/aretw0/gcoder/pkg/ports"
	"github.com/aretw0/gcoder/pkg/registry"
	"github.com/aretw0/gcoder/pkg/schema"
)

// Kind is the registry key of the in-memory sink.
const Kind = "memory"

// Register declares the collector in reg. It has no configuration keys.
func Register(reg *registry.Registry) {
	reg.Register(Kind, schema.Schema{})
}

// Collector is a sink stage that keeps every instruction payload it receives.
// Reads are safe for concurrent use; the lifecycle is driven by a single producer.
type Collector struct {
	lc *pipeline.Lifecycle

	mu       sync.RWMutex
	payloads []*domain.InstructionPayload
}

var _ ports.Stage = (*Collector)(nil)

// NewCollector creates an uninitialized collector.
func NewCollector(opts ...pipeline.Option) *Collector {
	return &Collector{lc: pipeline.NewLifecycle(Kind, domain.KindInstruction, opts...)}
}

// NewCollectorWithLogger is a shorthand for NewCollector(pipeline.WithLogger(l)).
func NewCollectorWithLogger(l *slog.Logger) *Collector {
	return NewCollector(pipeline.WithLogger(l))
}

func (c *Collector) Kind() string                       { return Kind }
func (c *Collector) Accepts() domain.PayloadKind        { return domain.KindInstruction }
func (c *Collector) Emits() domain.PayloadKind          { return "" }
func (c *Collector) State() domain.StageState           { return c.lc.State() }
func (c *Collector) Validate(doc config.Document) error { return nil }

// Init clears previously collected payloads.
func (c *Collector) Init(ctx context.Context, doc config.Document, downstream []ports.Stage) error {
	if err := c.lc.CheckInit(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.payloads = nil
	c.mu.Unlock()
	return c.lc.Init(ctx, downstream)
}

func (c *Collector) Start(ctx context.Context) error { return c.lc.Start(ctx) }

// Accept stores a copy of the payload.
func (c *Collector) Accept(ctx context.Context, p domain.Payload) error {
	if err := c.lc.CheckAccept(ctx, p); err != nil {
		return err
	}
	in := p.(*domain.InstructionPayload)

	// Copy so the producer may reuse its buffers.
	cp := *in
	cp.Lines = append([]string(nil), in.Lines...)

	c.mu.Lock()
	c.payloads = append(c.payloads, &cp)
	c.mu.Unlock()

	c.lc.Accepted(ctx)
	return nil
}

func (c *Collector) Finish(ctx context.Context) error { return c.lc.Finish(ctx) }

// Deinit keeps the collected payloads readable until the next Init.
func (c *Collector) Deinit(ctx context.Context) error { return c.lc.Deinit(ctx) }

// Payloads returns the collected payloads in arrival order.
func (c *Collector) Payloads() []*domain.InstructionPayload {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*domain.InstructionPayload(nil), c.payloads...)
}

// Lines returns every collected line in order.
func (c *Collector) Lines() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, p := range c.payloads {
		out = append(out, p.Lines...)
	}
	return out
}

// Text renders the collected stream one command per line.
func (c *Collector) Text() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var b strings.Builder
	for _, p := range c.payloads {
		b.WriteString(p.Text())
	}
	return b.String()
}

// Closed reports whether a final payload has been received.
func (c *Collector) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.payloads) > 0 && c.payloads[len(c.payloads)-1].Final
}
