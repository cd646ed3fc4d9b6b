package cache

import (
	"context"
	"fmt"
	"time"

	"atlas-booking/pkg/utils"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// InitRedis connects the client used for wizard drafts and submission locks.
func InitRedis(ctx context.Context, config utils.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}

	return client, nil
}

// QueueOpt points asynq at its own redis database.
func QueueOpt(config utils.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.QueueDB,
	}
}
