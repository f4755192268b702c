package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const lockRetryInterval = 25 * time.Millisecond

// Redis stores values as plain redis strings under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
	script *redis.Script
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: strings.TrimSuffix(prefix, ":"),
		script: redis.NewScript(lockReleaseScript),
	}
}

func (r *Redis) dataKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) lockKey(key string) string {
	return r.dataKey(key) + ":lock"
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, r.dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.dataKey(key), value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.dataKey(key)).Err()
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Close() error { return r.client.Close() }

// TryLock sets the lock key with a random token when it is free.
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.lockKey(key), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release deletes the lock only if token still owns it.
func (r *Redis) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return r.script.Run(ctx, r.client, []string{r.lockKey(key)}, token).Err()
}

// Lock retries TryLock until it succeeds or ctx ends.
func (r *Redis) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		token, ok, err := r.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func(ctx context.Context) error { return r.Release(ctx, key, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

var _ Locker = (*Redis)(nil)
