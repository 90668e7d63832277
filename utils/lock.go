package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the lock key only when it still holds our token,
// so an expired lock reacquired by another caller is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker serializes critical sections across processes using redis SETNX keys.
type Locker struct {
	client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// Acquire takes the named lock, retrying until the context deadline.
// It returns a release function on success.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				_, _ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Result()
			}
			return release, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// SetIdempotencyKey records a one-shot key. It returns false when the key
// was already present, meaning the operation has been seen before.
func (l *Locker) SetIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "1", ttl).Result()
}

// DeleteIdempotencyKey drops a one-shot key so the next attempt counts as the
// first again.
func (l *Locker) DeleteIdempotencyKey(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}
