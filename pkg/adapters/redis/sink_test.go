package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/gcoder/pkg/adapters/redis"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSink_Contract(t *testing.T) {
	ports.RunStageContract(t,
		func(t *testing.T) ports.Stage {
			_, client := setup(t)
			return redis.NewFromClient(client, "contract")
		},
		config.Document{},
		&domain.InstructionPayload{Phase: domain.PhaseLayer, Lines: []string{"G1 X1 Y1 Z0 F900"}},
	)
}

func TestRedisSink_PushesLinesAndStatus(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()
	s := redis.NewFromClient(client, "part-1")

	require.NoError(t, s.Init(ctx, nil, nil))
	require.NoError(t, s.Start(ctx))

	st, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, redis.StatusStreaming, st)

	require.NoError(t, s.Accept(ctx, &domain.InstructionPayload{Lines: []string{"G21", "G90"}}))
	require.NoError(t, s.Accept(ctx, &domain.InstructionPayload{Phase: domain.PhaseFooter, Lines: []string{"(end)"}, Final: true}))
	require.NoError(t, s.Finish(ctx))

	lines, err := s.Lines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"G21", "G90", "(end)"}, lines)

	st, _ = s.Status(ctx)
	assert.Equal(t, redis.StatusDone, st)

	assert.Equal(t, "gcoder:job:part-1", s.Key())
	assert.True(t, mr.Exists("gcoder:job:part-1"))
	assert.False(t, mr.Exists("gcoder:job:lock:part-1"), "lock is released on finish")
}

func TestRedisSink_AbortStatus(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	s := redis.NewFromClient(client, "part-2", redis.WithPrefix("shop:"))

	require.NoError(t, s.Init(ctx, nil, nil))
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Accept(ctx, &domain.InstructionPayload{Phase: domain.PhaseAbort, Lines: []string{"G162 Z F500"}, Final: true}))
	require.NoError(t, s.Deinit(ctx))

	st, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, redis.StatusAborted, st)
	assert.Equal(t, "shop:part-2", s.Key())
}

func TestRedisSink_RestartClearsPreviousOutput(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()
	s := redis.NewFromClient(client, "part-3")

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Init(ctx, nil, nil))
		require.NoError(t, s.Start(ctx))
		require.NoError(t, s.Accept(ctx, &domain.InstructionPayload{Lines: []string{"G21"}}))
		require.NoError(t, s.Finish(ctx))
		require.NoError(t, s.Deinit(ctx))
	}

	lines, err := s.Lines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"G21"}, lines)
}

func TestRedisSink_JobBusy(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()

	first := redis.NewFromClient(client, "shared")
	second := redis.NewFromClient(client, "shared")
	require.NoError(t, first.Init(ctx, nil, nil))
	require.NoError(t, second.Init(ctx, nil, nil))

	require.NoError(t, first.Start(ctx))
	err := second.Start(ctx)
	assert.ErrorIs(t, err, redis.ErrJobBusy)
	assert.Equal(t, domain.StateInitialized, second.State())

	require.NoError(t, first.Finish(ctx))
	require.NoError(t, second.Start(ctx))
}

func TestRedisSink_TTL(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()
	s := redis.NewFromClient(client, "short", redis.WithTTL(time.Second))

	require.NoError(t, s.Init(ctx, nil, nil))
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Accept(ctx, &domain.InstructionPayload{Lines: []string{"G21"}, Final: true}))
	require.NoError(t, s.Finish(ctx))

	mr.FastForward(2 * time.Second)

	lines, err := s.Lines(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
	st, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, st)
}

func TestLocker_TryLock(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()
	l := redis.NewLocker(client, "test:")

	lock, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, redis.ErrJobBusy)

	mr.FastForward(40 * time.Second)
	require.NoError(t, lock.Refresh(ctx))
	assert.Greater(t, mr.TTL("test:lock:k"), 50*time.Second)

	require.NoError(t, lock.Unlock(ctx))
	lock, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, lock.Unlock(ctx))
}

func TestLocker_RefreshAfterTakeover(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()
	l := redis.NewLocker(client, "test:")

	stale, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	fresh, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, stale.Refresh(ctx), redis.ErrJobBusy)
	// The stale owner cannot release a lock it no longer holds.
	require.NoError(t, stale.Unlock(ctx))
	assert.True(t, mr.Exists("test:lock:k"))
	require.NoError(t, fresh.Unlock(ctx))
}

func layer(lines ...string) *domain.InstructionPayload {
	return &domain.InstructionPayload{Phase: domain.PhaseLayer, Lines: lines}
}

func TestRedisSink_LongStreamKeepsLock(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()

	first := redis.NewFromClient(client, "long")
	second := redis.NewFromClient(client, "long")
	require.NoError(t, first.Init(ctx, nil, nil))
	require.NoError(t, second.Init(ctx, nil, nil))
	require.NoError(t, first.Start(ctx))

	// Three times the lock TTL, with a payload every 40 seconds.
	for i := 0; i < 5; i++ {
		mr.FastForward(40 * time.Second)
		require.NoError(t, first.Accept(ctx, layer("G1 X1 Y1 Z0.2 F900")))
	}

	err := second.Start(ctx)
	assert.ErrorIs(t, err, redis.ErrJobBusy)

	lines, err := first.Lines(ctx)
	require.NoError(t, err)
	assert.Len(t, lines, 5)
}

func TestRedisSink_StalledStreamCannotWriteAfterTakeover(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()

	stalled := redis.NewFromClient(client, "job")
	taker := redis.NewFromClient(client, "job")
	require.NoError(t, stalled.Init(ctx, nil, nil))
	require.NoError(t, taker.Init(ctx, nil, nil))

	require.NoError(t, stalled.Start(ctx))
	require.NoError(t, stalled.Accept(ctx, layer("A1", "A2")))

	mr.FastForward(2 * time.Minute)
	require.NoError(t, taker.Start(ctx))

	err := stalled.Accept(ctx, layer("A3"))
	assert.ErrorIs(t, err, redis.ErrJobBusy)
	require.NoError(t, taker.Accept(ctx, layer("B1")))

	lines, err := taker.Lines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1"}, lines)

	// Tearing down the stalled stream leaves the new owner's lock in place.
	require.NoError(t, stalled.Deinit(ctx))
	require.NoError(t, taker.Accept(ctx, layer("B2")))
	require.NoError(t, taker.Finish(ctx))
}
