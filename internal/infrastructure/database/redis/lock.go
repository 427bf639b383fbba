package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

var ErrLockNotAcquired = errors.New(errors.ErrCodeAllocationFailure, "failed to acquire lock")

// unlockScript releases the key only when the caller still owns it, so a
// lock that expired and was re-acquired elsewhere is never deleted by us.
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Locker acquires short-lived mutexes via SETNX with a per-holder token.
// The profile identifier allocator takes one of these so concurrent service
// instances never hand out the same sequence number.
type Locker struct {
	client     *Client
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
	logger     logging.Logger
}

func NewLocker(client *Client, ttl time.Duration, log logging.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{
		client:     client,
		ttl:        ttl,
		retryDelay: 100 * time.Millisecond,
		retryCount: 30,
		logger:     log,
	}
}

// Lock blocks until the key is acquired or the retry budget runs out.
// The returned func releases the lock; release failures are logged only,
// since the TTL bounds how long a stuck lock can block others.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.client.Key("lock:" + key)
	token := uuid.NewString()

	for i := 0; i < l.retryCount; i++ {
		ok, err := l.client.Raw().SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock").
				WithDetail(key)
		}
		if ok {
			return func() { l.release(fullKey, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, ErrLockNotAcquired.WithDetail(key)
}

func (l *Locker) release(fullKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := unlockScript.Run(ctx, l.client.Raw(), []string{fullKey}, token).Result()
	if err != nil {
		l.logger.Warn("failed to release lock", logging.String("key", fullKey), logging.Err(err))
		return
	}
	if n, _ := res.(int64); n == 0 {
		l.logger.Warn("lock expired before release", logging.String("key", fullKey))
	}
}
