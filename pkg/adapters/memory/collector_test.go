package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/gcoder/pkg/adapters/memory"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/ports"
	"github.com/aretw0/gcoder/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Contract(t *testing.T) {
	ports.RunStageContract(t,
		func(t *testing.T) ports.Stage { return memory.NewCollector() },
		config.Document{},
		&domain.InstructionPayload{Phase: domain.PhaseLayer, Lines: []string{"G21"}},
	)
}

func TestCollector_CollectsCopies(t *testing.T) {
	ctx := context.Background()
	c := memory.NewCollector()
	require.NoError(t, c.Init(ctx, nil, nil))
	require.NoError(t, c.Start(ctx))

	lines := []string{"G21", "G90"}
	require.NoError(t, c.Accept(ctx, &domain.InstructionPayload{Phase: domain.PhaseMachineInit, Lines: lines}))
	lines[0] = "mutated"
	assert.False(t, c.Closed())

	require.NoError(t, c.Accept(ctx, &domain.InstructionPayload{Phase: domain.PhaseFooter, Lines: []string{"(end)"}, Final: true}))
	require.NoError(t, c.Finish(ctx))

	assert.Equal(t, []string{"G21", "G90", "(end)"}, c.Lines())
	assert.Equal(t, "G21\nG90\n(end)\n", c.Text())
	assert.Len(t, c.Payloads(), 2)
	assert.True(t, c.Closed())

	// Readable after deinit, cleared by the next init.
	require.NoError(t, c.Deinit(ctx))
	assert.Len(t, c.Payloads(), 2)
	require.NoError(t, c.Init(ctx, nil, nil))
	assert.Empty(t, c.Payloads())
}

func TestRegister(t *testing.T) {
	reg := registry.NewRegistry()
	memory.Register(reg)
	s, ok := reg.Requirements(memory.Kind)
	require.True(t, ok)
	assert.Empty(t, s)
}
