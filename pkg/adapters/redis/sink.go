package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/pipeline"
	"github.com/aretw0/gcoder/pkg/ports"
	"github.com/aretw0/gcoder/pkg/registry"
	"github.com/aretw0/gcoder/pkg/schema"
	backend "github.com/redis/go-redis/v9"
)

// Kind is the registry key of the Redis sink.
const Kind = "redis"

// Register declares the Redis sink in reg. It has no configuration keys.
func Register(reg *registry.Registry) {
	reg.Register(Kind, schema.Schema{})
}

// Job status values stored under "<prefix><job>:status".
const (
	StatusStreaming = "streaming"
	StatusDone      = "done"
	StatusAborted   = "aborted"
)

// Sink is a stage pushing instruction lines onto a Redis list, one element per line.
// Consumers read "<prefix><job>" with LRANGE and poll "<prefix><job>:status".
type Sink struct {
	lc      *pipeline.Lifecycle
	client  *backend.Client
	locker  *Locker
	prefix  string
	job     string
	ttl     time.Duration
	lockTTL time.Duration
	lock    *Lock
	lcOpts  []pipeline.Option
}

var _ ports.Stage = (*Sink)(nil)

type Option func(*Sink)

// WithTTL sets the expiration of the job keys. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Sink) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Sink) {
		s.prefix = prefix
	}
}

// WithLockTTL bounds how long a stalled stream can hold the job lock.
// The lock is refreshed on every accepted payload.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Sink) {
		s.lockTTL = ttl
	}
}

// WithLifecycle passes options to the stage lifecycle (logger, hooks).
func WithLifecycle(opts ...pipeline.Option) Option {
	return func(s *Sink) {
		s.lcOpts = append(s.lcOpts, opts...)
	}
}

// New creates a sink connecting to a Redis server.
func New(address, password string, db int, job string, opts ...Option) *Sink {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, job, opts...)
}

// NewFromClient creates a sink from an existing client.
func NewFromClient(client *backend.Client, job string, opts ...Option) *Sink {
	s := &Sink{
		client:  client,
		prefix:  "gcoder:job:",
		job:     job,
		lockTTL: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.locker = NewLocker(client, s.prefix)
	s.lc = pipeline.NewLifecycle(Kind, domain.KindInstruction, s.lcOpts...)
	return s
}

// Key returns the list holding the job lines.
func (s *Sink) Key() string { return s.prefix + s.job }

// StatusKey returns the key holding the job status.
func (s *Sink) StatusKey() string { return s.Key() + ":status" }

func (s *Sink) Kind() string                       { return Kind }
func (s *Sink) Accepts() domain.PayloadKind        { return domain.KindInstruction }
func (s *Sink) Emits() domain.PayloadKind          { return "" }
func (s *Sink) State() domain.StageState           { return s.lc.State() }
func (s *Sink) Validate(doc config.Document) error { return nil }

func (s *Sink) Init(ctx context.Context, doc config.Document, downstream []ports.Stage) error {
	return s.lc.Init(ctx, downstream)
}

// Start locks the job and clears any previous output.
func (s *Sink) Start(ctx context.Context) error {
	if err := s.lc.CheckStart(ctx); err != nil {
		return err
	}
	lock, err := s.locker.TryLock(ctx, s.job, s.lockTTL)
	if err != nil {
		return s.lc.Reject(ctx, pipeline.OpStart, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, s.Key())
		pipe.Set(ctx, s.StatusKey(), StatusStreaming, s.ttl)
		return nil
	})
	if err != nil {
		_ = lock.Unlock(ctx)
		return s.lc.Reject(ctx, pipeline.OpStart, fmt.Errorf("failed to reset job: %w", err))
	}
	s.lock = lock
	return s.lc.Start(ctx)
}

// Accept appends the payload lines. A final payload also records the job status.
func (s *Sink) Accept(ctx context.Context, p domain.Payload) error {
	if err := s.lc.CheckAccept(ctx, p); err != nil {
		return err
	}
	in := p.(*domain.InstructionPayload)

	// A stream that outlived its lock must not write into a job another stream took over.
	if err := s.lock.Refresh(ctx); err != nil {
		return s.lc.Reject(ctx, pipeline.OpAccept, err)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		if len(in.Lines) > 0 {
			values := make([]any, len(in.Lines))
			for i, l := range in.Lines {
				values[i] = l
			}
			pipe.RPush(ctx, s.Key(), values...)
		}
		if in.Final {
			status := StatusDone
			if in.Phase == domain.PhaseAbort {
				status = StatusAborted
			}
			pipe.Set(ctx, s.StatusKey(), status, s.ttl)
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, s.Key(), s.ttl)
		}
		return nil
	})
	if err != nil {
		return s.lc.Reject(ctx, pipeline.OpAccept, fmt.Errorf("failed to push payload: %w", err))
	}
	s.lc.Accepted(ctx)
	return nil
}

// Finish releases the job lock.
func (s *Sink) Finish(ctx context.Context) error {
	if err := s.lc.CheckFinish(ctx); err != nil {
		return err
	}
	return errors.Join(s.release(ctx), s.lc.Finish(ctx))
}

// Deinit releases the job lock if a stream is still open.
func (s *Sink) Deinit(ctx context.Context) error {
	if err := s.lc.CheckDeinit(ctx); err != nil {
		return err
	}
	return errors.Join(s.release(ctx), s.lc.Deinit(ctx))
}

func (s *Sink) release(ctx context.Context) error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock(ctx)
	s.lock = nil
	if err != nil {
		return fmt.Errorf("failed to release job lock: %w", err)
	}
	return nil
}

// Lines reads back the job output.
func (s *Sink) Lines(ctx context.Context) ([]string, error) {
	return s.client.LRange(ctx, s.Key(), 0, -1).Result()
}

// Status reads the job status, or "" if the job is unknown.
func (s *Sink) Status(ctx context.Context) (string, error) {
	st, err := s.client.Get(ctx, s.StatusKey()).Result()
	if errors.Is(err, backend.Nil) {
		return "", nil
	}
	return st, err
}
