package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrGenerationInProgress is returned when another regeneration holds the lock
var ErrGenerationInProgress = errors.New("catalog pricing generation already in progress")

// Locker serializes catalog pricing regenerations. TryLock never waits: it
// either acquires the lock or fails with ErrGenerationInProgress.
type Locker interface {
	TryLock(ctx context.Context) (unlock func(), err error)
}

type mutexLocker struct {
	mu sync.Mutex
}

// NewMutexLocker guards regenerations within a single process
func NewMutexLocker() Locker {
	return &mutexLocker{}
}

func (l *mutexLocker) TryLock(ctx context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrGenerationInProgress
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}

const catalogPricingLockKey = "storefront:catalog-pricing:lock"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLocker guards regenerations across every process sharing the
// Redis instance. ttl bounds how long a crashed holder can block others.
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisLocker{client: client, key: catalogPricingLockKey, ttl: ttl}
}

func (l *redisLocker) TryLock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !ok {
		return nil, ErrGenerationInProgress
	}

	logger := zerolog.Ctx(ctx)
	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err(); err != nil {
				logger.Error().Err(err).Str("key", l.key).Dur("ttl", l.ttl).
					Msg("failed to release generation lock, it stays held until the ttl expires")
			}
		})
	}, nil
}
