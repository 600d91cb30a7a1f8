package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/ports"
)

// Lifecycle operation names used in errors and events.
const (
	OpInit   = "init"
	OpStart  = "start"
	OpAccept = "accept"
	OpFinish = "finish"
	OpDeinit = "deinit"
)

// Lifecycle tracks the state of one stage and enforces call ordering.
// It is not safe for concurrent use; stages are driven by a single producer.
type Lifecycle struct {
	kind       string
	accepts    domain.PayloadKind
	state      domain.StageState
	started    bool
	downstream []ports.Stage

	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithLogger sets the logger for transitions and rejections.
func WithLogger(l *slog.Logger) Option {
	return func(lc *Lifecycle) {
		if l != nil {
			lc.logger = l
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(lc *Lifecycle) {
		lc.hooks = lc.hooks.Merge(h)
	}
}

// NewLifecycle creates the bookkeeping for a stage of the given kind.
func NewLifecycle(kind string, accepts domain.PayloadKind, opts ...Option) *Lifecycle {
	lc := &Lifecycle{
		kind:    kind,
		accepts: accepts,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(lc)
	}
	lc.logger = lc.logger.With("stage", kind)
	return lc
}

// Kind returns the stage kind.
func (l *Lifecycle) Kind() string { return l.kind }

// State returns the current lifecycle position.
func (l *Lifecycle) State() domain.StageState { return l.state }

// Downstream returns the stages given at Init.
func (l *Lifecycle) Downstream() []ports.Stage { return l.downstream }

// Logger returns the stage-scoped logger.
func (l *Lifecycle) Logger() *slog.Logger { return l.logger }

// Open reports whether a stream was started and has not finished.
func (l *Lifecycle) Open() bool {
	return l.started && l.state != domain.StateFinished
}

// CheckInit fails unless the stage is uninitialized.
func (l *Lifecycle) CheckInit(ctx context.Context) error {
	if l.state != domain.StateUninitialized {
		return l.violation(ctx, OpInit, "uninitialized")
	}
	return nil
}

// Init records the downstream stages and moves to Initialized.
// The caller validates and stores its configuration before calling Init.
func (l *Lifecycle) Init(ctx context.Context, downstream []ports.Stage) error {
	if err := l.CheckInit(ctx); err != nil {
		return err
	}
	l.downstream = downstream
	l.started = false
	l.transition(ctx, OpInit, domain.StateInitialized)
	return nil
}

// CheckStart fails unless the stage is initialized and its stream not yet started.
func (l *Lifecycle) CheckStart(ctx context.Context) error {
	if l.state != domain.StateInitialized || l.started {
		return l.violation(ctx, OpStart, "initialized and not yet started")
	}
	return nil
}

// Start opens the stream and propagates Start downstream.
// The stage emits its opening payloads after Start returns.
// If a downstream stage fails to start, the ones started before it are finished.
func (l *Lifecycle) Start(ctx context.Context) error {
	if err := l.CheckStart(ctx); err != nil {
		return err
	}
	for i, d := range l.downstream {
		if err := d.Start(ctx); err != nil {
			// Close the streams already opened; this stage never opens its own.
			errs := []error{err}
			for _, opened := range l.downstream[:i] {
				errs = append(errs, opened.Finish(ctx))
			}
			return l.Reject(ctx, OpStart, errors.Join(errs...))
		}
	}
	l.started = true
	l.transition(ctx, OpStart, domain.StateInitialized)
	return nil
}

// CheckAccept fails unless a stream is open and p is a non-nil payload of the accepted kind.
func (l *Lifecycle) CheckAccept(ctx context.Context, p domain.Payload) error {
	if !l.Open() {
		return l.violation(ctx, OpAccept, "a started stream")
	}
	if domain.KindOf(p) != string(l.accepts) {
		return l.Reject(ctx, OpAccept, &domain.PayloadTypeMismatchError{
			Stage:    l.kind,
			Expected: l.accepts,
			Actual:   domain.KindOf(p),
		})
	}
	return nil
}

// Accepted records a successfully handled payload.
// The first one moves the stage from Initialized to Streaming.
func (l *Lifecycle) Accepted(ctx context.Context) {
	if l.state == domain.StateInitialized {
		l.transition(ctx, OpAccept, domain.StateStreaming)
	}
}

// CheckFinish fails unless a stream is open.
func (l *Lifecycle) CheckFinish(ctx context.Context) error {
	if !l.Open() {
		return l.violation(ctx, OpFinish, "a started stream")
	}
	return nil
}

// Finish propagates Finish downstream and moves to Finished.
// The stage emits its closing payload before calling Finish.
func (l *Lifecycle) Finish(ctx context.Context) error {
	if err := l.CheckFinish(ctx); err != nil {
		return err
	}
	var errs []error
	for _, d := range l.downstream {
		if err := d.Finish(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	l.transition(ctx, OpFinish, domain.StateFinished)
	if err := errors.Join(errs...); err != nil {
		return l.Reject(ctx, OpFinish, err)
	}
	return nil
}

// CheckDeinit fails if the stage was never initialized.
func (l *Lifecycle) CheckDeinit(ctx context.Context) error {
	if l.state == domain.StateUninitialized {
		return l.violation(ctx, OpDeinit, "an initialized stage")
	}
	return nil
}

// Deinit drops the downstream references and returns to Uninitialized.
// A stage with an open stream emits its abort payload before calling Deinit.
func (l *Lifecycle) Deinit(ctx context.Context) error {
	if err := l.CheckDeinit(ctx); err != nil {
		return err
	}
	l.downstream = nil
	l.started = false
	l.transition(ctx, OpDeinit, domain.StateUninitialized)
	return nil
}

// Emit forwards p to every downstream stage in order.
// Every stage receives the payload even if an earlier one fails.
func (l *Lifecycle) Emit(ctx context.Context, p *domain.InstructionPayload) error {
	var errs []error
	for _, d := range l.downstream {
		if err := d.Accept(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}

	if l.hooks.OnEmit != nil {
		l.hooks.OnEmit(ctx, &domain.EmitEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventEmit, Stage: l.kind},
			Phase:     p.Phase,
			Lines:     len(p.Lines),
			Final:     p.Final,
		})
	}
	return errors.Join(errs...)
}

// Reject logs err, fires the reject hook and returns err unchanged.
func (l *Lifecycle) Reject(ctx context.Context, op string, err error) error {
	l.logger.Warn("lifecycle call rejected", "op", op, "state", l.state.String(), "error", err)
	if l.hooks.OnReject != nil {
		l.hooks.OnReject(ctx, &domain.RejectEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventReject, Stage: l.kind},
			Op:        op,
			Err:       err,
		})
	}
	return err
}

func (l *Lifecycle) violation(ctx context.Context, op, expected string) error {
	return l.Reject(ctx, op, &domain.ProtocolViolationError{
		Stage:    l.kind,
		Op:       op,
		State:    l.state,
		Expected: expected,
	})
}

func (l *Lifecycle) transition(ctx context.Context, op string, to domain.StageState) {
	from := l.state
	l.state = to
	l.logger.Debug("stage transition", "op", op, "from", from.String(), "to", to.String())
	if l.hooks.OnTransition != nil {
		l.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransition, Stage: l.kind},
			Op:        op,
			From:      from,
			To:        to,
		})
	}
}
