package redis

import (
	"context"
	"fmt"
	"time"

	"drawboard/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	Address   string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// NewRedisClient connects, retrying the initial ping with backoff, and runs
// pending migrations.
func NewRedisClient(ctx context.Context, opts Options, retryCfg retry.Config, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warnw("redis not reachable, retrying",
			"address", opts.Address,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}
	err := retry.Retry(ctx, retryCfg, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if err := Migrate(ctx, client, opts.KeyPrefix, logger); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Infow("connected to Redis",
		"address", opts.Address,
		"db", opts.DB,
		"pool_size", opts.PoolSize,
	)
	return client, nil
}
