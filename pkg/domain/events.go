package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventEmit       EventType = "emit"
	EventReject     EventType = "reject"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Stage     string    `json:"stage"`
}

// TransitionEvent represents a lifecycle state change.
type TransitionEvent struct {
	EventBase
	Op   string     `json:"op"`
	From StageState `json:"from"`
	To   StageState `json:"to"`
}

// EmitEvent represents a payload forwarded downstream.
type EmitEvent struct {
	EventBase
	Phase Phase `json:"phase"`
	Lines int   `json:"lines"`
	Final bool  `json:"final,omitempty"`
}

// RejectEvent represents an error returned from a lifecycle call.
type RejectEvent struct {
	EventBase
	Op  string `json:"op"`
	Err error  `json:"-"`
}

// LifecycleHooks defines callbacks for stage observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnEmit       func(context.Context, *EmitEvent)
	OnReject     func(context.Context, *RejectEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnEmit:       chain(h.OnEmit, other.OnEmit),
		OnReject:     chain(h.OnReject, other.OnReject),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
