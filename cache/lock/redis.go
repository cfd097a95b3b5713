package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL   = 2 * time.Minute
	defaultRetry = 100 * time.Millisecond
	keyPrefix    = "accessors:lock:"
)

// releaseScript deletes the lock only if it still holds the caller token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type (
	// Redis is a Locker shared by every process connected to the same
	// Redis server. Callers in one process are first deduplicated by a
	// Keyed lock.
	Redis struct {
		client *redis.Client
		local  *Keyed
		ttl    time.Duration
		wait   time.Duration
		retry  time.Duration
	}

	// RedisOption configures a Redis lock.
	RedisOption func(*Redis)
)

var _ Locker = (*Redis)(nil)

// WithTTL sets the expiry of a held lock, which bounds how long a crashed
// holder blocks others. Defaults to two minutes.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithWait sets how long WithLock waits for a held lock before returning
// ErrLockTimeout. Defaults to the TTL.
func WithWait(wait time.Duration) RedisOption {
	return func(r *Redis) { r.wait = wait }
}

// WithRetryInterval sets the polling interval while waiting.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(r *Redis) { r.retry = d }
}

// NewRedis returns a distributed lock using client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, local: NewKeyed(), ttl: defaultTTL, retry: defaultRetry}
	for _, o := range opts {
		o(r)
	}
	if r.wait == 0 {
		r.wait = r.ttl
	}
	return r
}

// WithLock acquires the Redis lock of key, runs fn and releases the lock.
func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return r.local.WithLock(ctx, key, func(ctx context.Context) error {
		token, err := r.acquire(ctx, keyPrefix+key)
		if err != nil {
			return err
		}
		defer r.release(keyPrefix+key, token)
		return fn(ctx)
	})
}

func (r *Redis) acquire(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()
	deadline := time.NewTimer(r.wait)
	defer deadline.Stop()
	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("acquire lock %q: %w", key, err)
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", fmt.Errorf("%w: %s", ErrLockTimeout, key)
		case <-ticker.C:
		}
	}
}

// release runs with its own context so a canceled caller still frees the
// lock.
func (r *Redis) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// On failure the lock expires after its TTL.
	_ = releaseScript.Run(ctx, r.client, []string{key}, token).Err()
}
