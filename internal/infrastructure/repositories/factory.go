package repositories

import (
	"context"
	"fmt"

	"drawboard/internal/core/ports"
	boltrepo "drawboard/internal/infrastructure/repositories/bolt"
	"drawboard/internal/infrastructure/repositories/memory"
	redisrepo "drawboard/internal/infrastructure/repositories/redis"
	"drawboard/pkg/circuitbreaker"
	"drawboard/pkg/config"
	"drawboard/pkg/retry"

	"go.uber.org/zap"
)

// RepositoryFactory opens the configured key-value backend. An unreachable
// Redis degrades to the in-memory store rather than failing startup.
type RepositoryFactory struct {
	backend string
	store   ports.KeyValueStore
	logger  *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		backend: cfg.Storage.Backend,
		logger:  logger,
	}

	switch cfg.Storage.Backend {
	case config.StorageBolt:
		store, err := boltrepo.Open(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		factory.store = store
		logger.Infow("using bolt key-value store", "path", cfg.Storage.BoltPath)

	case config.StorageRedis:
		client, err := redisrepo.NewRedisClient(ctx, redisrepo.Options{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			PoolSize:  cfg.Redis.PoolSize,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, retry.DefaultConfig(), logger)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory store", "error", err)
			factory.backend = config.StorageMemory
			factory.store = memory.NewMemoryKeyValueStore()
			break
		}
		breaker := redisrepo.NewBreaker(circuitbreaker.DefaultConfig())
		breaker.OnStateChange(func(from, to circuitbreaker.State) {
			logger.Warnw("redis circuit breaker state changed", "from", from.String(), "to", to.String())
		})
		factory.store = redisrepo.NewRedisKeyValueStore(client, cfg.Redis.KeyPrefix, breaker)
		logger.Info("using Redis key-value store")

	case config.StorageMemory:
		factory.store = memory.NewMemoryKeyValueStore()
		logger.Info("using memory key-value store")

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return factory, nil
}

// KeyValueStore returns the opened store.
func (f *RepositoryFactory) KeyValueStore() ports.KeyValueStore {
	return f.store
}

// Backend reports the backend actually in use, after any fallback.
func (f *RepositoryFactory) Backend() string {
	return f.backend
}

// Close releases the underlying connection or file
func (f *RepositoryFactory) Close() error {
	if f.store != nil {
		return f.store.Close()
	}
	return nil
}

// Ping checks the backend is reachable.
func (f *RepositoryFactory) Ping(ctx context.Context) error {
	if f.store == nil {
		return fmt.Errorf("no key-value store")
	}
	return f.store.Ping(ctx)
}
