package redis

import (
	"context"
	"fmt"
	"time"

	"drawboard/pkg/distributed"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	schemaVersionSuffix = "schema:version"
	migrationLockName   = "schema:lock"
	migrationLockTTL    = 10 * time.Second
	migrationLockWait   = 30 * time.Second
)

// legacyKeys were written without a namespace by early builds.
var legacyKeys = []string{"collabUser"}

// Migration represents a keyspace migration
type Migration struct {
	Version int
	Up      func(ctx context.Context, client *redis.Client, prefix string) error
}

// Migrate runs all pending migrations. Instances sharing one Redis take
// turns through a lock so each migration runs once.
func Migrate(ctx context.Context, client *redis.Client, prefix string, logger *zap.SugaredLogger) error {
	locks := distributed.NewManager(client, prefix)
	return locks.WithLock(ctx, migrationLockName, migrationLockTTL, migrationLockWait, func(ctx context.Context) error {
		return migrate(ctx, client, prefix, logger)
	})
}

func migrate(ctx context.Context, client *redis.Client, prefix string, logger *zap.SugaredLogger) error {
	versionKey := prefix + schemaVersionSuffix

	currentVersion, err := getSchemaVersion(ctx, client, versionKey)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range getMigrations() {
		if migration.Version <= currentVersion {
			continue
		}
		logger.Infow("running migration", "version", migration.Version)

		if err := migration.Up(ctx, client, prefix); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := client.Set(ctx, versionKey, migration.Version, 0).Err(); err != nil {
			return fmt.Errorf("failed to update schema version: %w", err)
		}
		currentVersion = migration.Version
	}

	logger.Infow("schema is up to date", "version", currentVersion)
	return nil
}

func getSchemaVersion(ctx context.Context, client *redis.Client, key string) (int, error) {
	val, err := client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func getMigrations() []Migration {
	return []Migration{
		{
			// Move bare keys under the configured prefix unless the
			// prefixed key already exists.
			Version: 1,
			Up: func(ctx context.Context, client *redis.Client, prefix string) error {
				if prefix == "" {
					return nil
				}
				for _, key := range legacyKeys {
					n, err := client.Exists(ctx, key).Result()
					if err != nil {
						return err
					}
					if n == 0 {
						continue
					}
					if err := client.RenameNX(ctx, key, prefix+key).Err(); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
