package ports

import (
	"context"

	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
)

// Stage is one element of a streaming pipeline.
type Stage interface {
	// Kind names the stage type; it keys the requirement registry.
	Kind() string

	// Accepts is the payload kind the stage consumes.
	Accepts() domain.PayloadKind

	// Emits is the payload kind the stage forwards downstream, or "" for a sink.
	Emits() domain.PayloadKind

	// Validate checks doc against the stage's requirements without changing state.
	// Returns *domain.ConfigInvalidError naming every failing key.
	Validate(doc config.Document) error

	// Init validates and stores the configuration and the downstream stages.
	Init(ctx context.Context, doc config.Document, downstream []Stage) error

	// Start opens a stream. It propagates to downstream stages first.
	Start(ctx context.Context) error

	// Accept consumes one payload of the accepted kind.
	// The stage must not retain p after returning.
	Accept(ctx context.Context, p domain.Payload) error

	// Finish closes the stream and propagates to downstream stages.
	Finish(ctx context.Context) error

	// Deinit releases the configuration and downstream references.
	// A stream still open is closed with a final abort payload.
	Deinit(ctx context.Context) error

	// State reports the current lifecycle position.
	State() domain.StageState
}
