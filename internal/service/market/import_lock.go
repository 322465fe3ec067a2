package market

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	importLockKeyPrefix = "portfolio:market_import:lock:"
	defaultLockTTL      = time.Minute
)

// ImportLock guards one venue's import against concurrent runs.
type ImportLock interface {
	Acquire(ctx context.Context, venue string) (bool, error)
	Release(ctx context.Context, venue string) error
}

// RedisImportLock is a best-effort SetNX lock. The TTL bounds lock lifetime if
// a worker dies mid-import; it is not a fencing token.
type RedisImportLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisImportLock(client *redis.Client, ttl time.Duration) *RedisImportLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisImportLock{client: client, ttl: ttl}
}

func (l *RedisImportLock) Acquire(ctx context.Context, venue string) (bool, error) {
	return l.client.SetNX(ctx, importLockKeyPrefix+venue, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *RedisImportLock) Release(ctx context.Context, venue string) error {
	return l.client.Del(ctx, importLockKeyPrefix+venue).Err()
}
