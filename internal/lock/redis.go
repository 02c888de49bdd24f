// Package lock holds the Redis entity mutex. Locks are tied to the database
// transaction in the context: they are released when it commits or rolls
// back, like PostgreSQL transaction-level advisory locks.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jerneif/lotto-api/internal/repository/dao"
)

const keyPrefix = "lotto:lock:"

var errHeld = errors.New("lock held")

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker returns a locker whose keys expire after ttl. ttl must be
// longer than the longest transaction, or a lock can expire while held.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, key string) (bool, error) {
	if !dao.InTransaction(ctx) {
		return false, dao.ErrNoTransaction
	}

	return l.try(ctx, key)
}

// Acquire polls with exponential backoff until the lock is taken or ctx is
// done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) error {
	if !dao.InTransaction(ctx) {
		return dao.ErrNoTransaction
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		ok, err := l.try(ctx, key)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errHeld
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

func (l *RedisLocker) try(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	err = dao.OnTransactionEnd(ctx, func() {
		l.release(context.WithoutCancel(ctx), redisKey, token)
	})
	if err != nil {
		l.release(context.WithoutCancel(ctx), redisKey, token)
		return false, err
	}

	return true, nil
}

func (l *RedisLocker) release(ctx context.Context, redisKey, token string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int64()
	if err != nil {
		zap.L().Error("failed to release redis lock", zap.String("key", redisKey), zap.Error(err))
		return
	}
	if n == 0 {
		zap.L().Warn("redis lock expired before release", zap.String("key", redisKey))
	}
}
