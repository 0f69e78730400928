package rollover

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned by TryLock when another run holds the lock.
var ErrLocked = errors.New("rollover: already running")

// Locker guarantees a single concurrent rollover.
type Locker interface {
	// TryLock acquires the lock without waiting. The returned function releases it.
	TryLock(ctx context.Context) (unlock func(context.Context) error, err error)
}

// MutexLocker is a process-local Locker.
type MutexLocker struct {
	mu sync.Mutex
}

func (l *MutexLocker) TryLock(context.Context) (func(context.Context) error, error) {
	if !l.mu.TryLock() {
		return nil, ErrLocked
	}
	return func(context.Context) error {
		l.mu.Unlock()
		return nil
	}, nil
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process using the same Redis.
// The lock expires after ttl so a crashed worker cannot hold it forever.
type RedisLocker struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisLocker returns a locker on key. ttl must exceed the longest expected run.
func NewRedisLocker(client redis.UniversalClient, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = "psup:rollover:lock"
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(context.Context) error, error) {
	token, err := lockToken()
	if err != nil {
		return nil, err
	}
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
	}, nil
}

func lockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
