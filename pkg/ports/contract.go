package ports

import (
	"context"
	"testing"

	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StageFactory builds a fresh, uninitialized stage for each contract case.
type StageFactory func(t *testing.T) Stage

// RunStageContract runs a suite of tests to verify that a Stage implementation
// follows the lifecycle rules. doc must be a configuration the stage accepts and
// sample a payload of the kind it accepts.
func RunStageContract(t *testing.T, factory StageFactory, doc config.Document, sample domain.Payload) {
	ctx := context.Background()

	t.Run("Starts Uninitialized", func(t *testing.T) {
		s := factory(t)
		assert.Equal(t, domain.StateUninitialized, s.State())
		assert.Equal(t, sample.Kind(), s.Accepts(), "sample payload must be of the accepted kind")
	})

	t.Run("Full Stream", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Validate(doc))
		require.NoError(t, s.Init(ctx, doc, nil))
		assert.Equal(t, domain.StateInitialized, s.State())

		require.NoError(t, s.Start(ctx))
		require.NoError(t, s.Accept(ctx, sample))
		assert.Equal(t, domain.StateStreaming, s.State())
		require.NoError(t, s.Accept(ctx, sample))

		require.NoError(t, s.Finish(ctx))
		assert.Equal(t, domain.StateFinished, s.State())

		require.NoError(t, s.Deinit(ctx))
		assert.Equal(t, domain.StateUninitialized, s.State())
	})

	t.Run("Empty Stream", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Init(ctx, doc, nil))
		require.NoError(t, s.Start(ctx))
		require.NoError(t, s.Finish(ctx))
		assert.Equal(t, domain.StateFinished, s.State())
	})

	t.Run("Reinit After Deinit", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Init(ctx, doc, nil))
		require.NoError(t, s.Deinit(ctx))
		require.NoError(t, s.Init(ctx, doc, nil))
		require.NoError(t, s.Start(ctx))
	})

	t.Run("Deinit With Open Stream", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Init(ctx, doc, nil))
		require.NoError(t, s.Start(ctx))
		require.NoError(t, s.Accept(ctx, sample))
		require.NoError(t, s.Deinit(ctx))
		assert.Equal(t, domain.StateUninitialized, s.State())
	})

	t.Run("Protocol Violations", func(t *testing.T) {
		violations := []struct {
			name  string
			setup []func(Stage) error
			op    func(Stage) error
		}{
			{"start before init", nil, func(s Stage) error { return s.Start(ctx) }},
			{"accept before init", nil, func(s Stage) error { return s.Accept(ctx, sample) }},
			{"finish before init", nil, func(s Stage) error { return s.Finish(ctx) }},
			{"deinit before init", nil, func(s Stage) error { return s.Deinit(ctx) }},
			{
				"double init",
				[]func(Stage) error{func(s Stage) error { return s.Init(ctx, doc, nil) }},
				func(s Stage) error { return s.Init(ctx, doc, nil) },
			},
			{
				"accept before start",
				[]func(Stage) error{func(s Stage) error { return s.Init(ctx, doc, nil) }},
				func(s Stage) error { return s.Accept(ctx, sample) },
			},
			{
				"finish before start",
				[]func(Stage) error{func(s Stage) error { return s.Init(ctx, doc, nil) }},
				func(s Stage) error { return s.Finish(ctx) },
			},
			{
				"double start",
				[]func(Stage) error{
					func(s Stage) error { return s.Init(ctx, doc, nil) },
					func(s Stage) error { return s.Start(ctx) },
				},
				func(s Stage) error { return s.Start(ctx) },
			},
			{
				"accept after finish",
				[]func(Stage) error{
					func(s Stage) error { return s.Init(ctx, doc, nil) },
					func(s Stage) error { return s.Start(ctx) },
					func(s Stage) error { return s.Finish(ctx) },
				},
				func(s Stage) error { return s.Accept(ctx, sample) },
			},
			{
				"start after finish",
				[]func(Stage) error{
					func(s Stage) error { return s.Init(ctx, doc, nil) },
					func(s Stage) error { return s.Start(ctx) },
					func(s Stage) error { return s.Finish(ctx) },
				},
				func(s Stage) error { return s.Start(ctx) },
			},
		}

		for _, v := range violations {
			t.Run(v.name, func(t *testing.T) {
				s := factory(t)
				for _, step := range v.setup {
					require.NoError(t, step(s))
				}
				before := s.State()

				err := v.op(s)
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrProtocolViolation)
				assert.True(t, domain.IsFatal(err))

				var pv *domain.ProtocolViolationError
				require.ErrorAs(t, err, &pv)
				assert.Equal(t, s.Kind(), pv.Stage)
				assert.Equal(t, before, s.State(), "a rejected call must not change state")
			})
		}
	})

	t.Run("Payload Type Mismatch", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Init(ctx, doc, nil))
		require.NoError(t, s.Start(ctx))

		var wrong domain.Payload = &domain.InstructionPayload{Phase: domain.PhaseLayer}
		if s.Accepts() == domain.KindInstruction {
			wrong = &domain.GeometryPayload{}
		}

		err := s.Accept(ctx, wrong)
		assert.ErrorIs(t, err, domain.ErrPayloadTypeMismatch)
		assert.False(t, domain.IsFatal(err))

		err = s.Accept(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrPayloadTypeMismatch)

		// The stream stays usable.
		require.NoError(t, s.Accept(ctx, sample))
		require.NoError(t, s.Finish(ctx))
	})
}
