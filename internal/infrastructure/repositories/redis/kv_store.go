package redis

import (
	"context"
	"errors"
	"fmt"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/pkg/circuitbreaker"
	"drawboard/pkg/tracing"

	"github.com/redis/go-redis/v9"
)

// RedisKeyValueStore guards every command with a circuit breaker so a dead
// server fails requests fast instead of waiting out each timeout. A missing
// key does not count as a failure.
type RedisKeyValueStore struct {
	client  *redis.Client
	prefix  string
	breaker *circuitbreaker.CircuitBreaker
}

func NewRedisKeyValueStore(client *redis.Client, prefix string, breaker *circuitbreaker.CircuitBreaker) ports.KeyValueStore {
	return &RedisKeyValueStore{
		client:  client,
		prefix:  prefix,
		breaker: breaker,
	}
}

// NewBreaker returns a breaker configured for a key-value store.
func NewBreaker(cfg circuitbreaker.Config) *circuitbreaker.CircuitBreaker {
	cfg.IsFailure = func(err error) bool { return !errors.Is(err, domain.ErrKeyNotFound) }
	return circuitbreaker.New(cfg)
}

func (s *RedisKeyValueStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracing.TraceStorageOperation(ctx, "get", "redis")
	defer span.End()

	return circuitbreaker.Do(ctx, s.breaker, func(ctx context.Context) ([]byte, error) {
		data, err := s.client.Get(ctx, s.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrKeyNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get key from Redis: %w", err)
		}
		return data, nil
	})
}

func (s *RedisKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := tracing.TraceStorageOperation(ctx, "set", "redis")
	defer span.End()

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
			return fmt.Errorf("failed to set key in Redis: %w", err)
		}
		return nil
	})
}

func (s *RedisKeyValueStore) Delete(ctx context.Context, key string) error {
	ctx, span := tracing.TraceStorageOperation(ctx, "delete", "redis")
	defer span.End()

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
			return fmt.Errorf("failed to delete key from Redis: %w", err)
		}
		return nil
	})
}

// Ping bypasses the breaker so health checks see the real state.
func (s *RedisKeyValueStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisKeyValueStore) Close() error {
	return s.client.Close()
}
