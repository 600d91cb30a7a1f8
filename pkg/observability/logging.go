package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/gcoder/pkg/domain"
)

// LogHooks returns lifecycle callbacks writing one record per event.
// Transitions and emits are logged at Debug, rejections at Warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, "transition",
				"stage", e.Stage, "op", e.Op, "from", e.From.String(), "to", e.To.String())
		},
		OnEmit: func(ctx context.Context, e *domain.EmitEvent) {
			logger.DebugContext(ctx, "emit",
				"stage", e.Stage, "phase", string(e.Phase), "lines", e.Lines, "final", e.Final)
		},
		OnReject: func(ctx context.Context, e *domain.RejectEvent) {
			logger.WarnContext(ctx, "reject",
				"stage", e.Stage, "op", e.Op, "reason", Reason(e.Err), "error", e.Err)
		},
	}
}
