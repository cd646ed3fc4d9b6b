package cache

import (
	"context"
	"fmt"
	"time"

	"atlas-booking/internal/pipeline"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, log *zap.Logger) *RedisLocker {
	return &RedisLocker{
		rdb: rdb,
		log: log.With(zap.String("component", "locker")),
	}
}

// Acquire takes the lock with SET NX. It fails with
// pipeline.ErrSubmissionInFlight while another holder has it.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, pipeline.ErrSubmissionInFlight
	}

	return func() {
		// release must outlive a cancelled request
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn("Failed to release lock", zap.Error(err), zap.String("key", key))
		}
	}, nil
}
