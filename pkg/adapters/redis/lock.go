package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrJobBusy is returned when another stream holds the job lock,
	// or when a stream's own lock expired and was taken over.
	ErrJobBusy = errors.New("job is being written by another stream")
)

// Locker guards a job key so that a single stream writes it at a time.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

// Lock is a held job lock. Its owner must Refresh it more often than its TTL.
type Lock struct {
	client *backend.Client
	key    string
	token  string
	ttl    time.Duration
}

// unlockScript deletes the lock only if it still holds our token.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// refreshScript extends the lock only if it still holds our token.
const refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`

// TryLock takes the lock for key with SET NX PX, without waiting.
// Returns ErrJobBusy if the lock is held.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lockKey := l.prefix + "lock:" + key
	token := fmt.Sprintf("%d", time.Now().UnixNano())

	ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobBusy, key)
	}
	return &Lock{client: l.client, key: lockKey, token: token, ttl: ttl}, nil
}

// Refresh resets the lock TTL. Returns ErrJobBusy if the lock expired
// and is no longer ours.
func (k *Lock) Refresh(ctx context.Context) error {
	n, err := k.client.Eval(ctx, refreshScript, []string{k.key}, k.token, k.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis error refreshing lock: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: lock %s lost", ErrJobBusy, k.key)
	}
	return nil
}

// Unlock releases the lock if it is still ours.
func (k *Lock) Unlock(ctx context.Context) error {
	return k.client.Eval(ctx, unlockScript, []string{k.key}, k.token).Err()
}
