package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	boltrepo "drawboard/internal/infrastructure/repositories/bolt"
	"drawboard/internal/infrastructure/repositories/memory"
	"drawboard/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// exerciseStore checks the KeyValueStore contract shared by all backends.
func exerciseStore(t *testing.T, store ports.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "collabUser")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "collabUser", []byte(`{"name":"Ada"}`)))
	got, err := store.Get(ctx, "collabUser")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, string(got))

	// returned bytes are a copy
	got[0] = 'X'
	again, err := store.Get(ctx, "collabUser")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), again[0])

	require.NoError(t, store.Set(ctx, "collabUser", []byte(`{"name":"Grace"}`)))
	got, err = store.Get(ctx, "collabUser")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Grace"}`, string(got))

	require.NoError(t, store.Delete(ctx, "collabUser"))
	require.NoError(t, store.Delete(ctx, "collabUser"))
	_, err = store.Get(ctx, "collabUser")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	assert.NoError(t, store.Ping(ctx))
}

func TestMemoryKeyValueStore(t *testing.T) {
	store := memory.NewMemoryKeyValueStore()
	defer store.Close()
	exerciseStore(t, store)
}

func TestBoltKeyValueStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "drawboard.db")
	store, err := boltrepo.Open(path)
	require.NoError(t, err)
	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), "k", []byte("v")))
	require.NoError(t, store.Close())

	reopened, err := boltrepo.Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestFactory_Backends(t *testing.T) {
	logger := zap.NewNop().Sugar()
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.StorageMemory
	f, err := NewRepositoryFactory(ctx, cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, config.StorageMemory, f.Backend())
	assert.NoError(t, f.Ping(ctx))
	assert.NoError(t, f.Close())

	cfg.Storage.Backend = config.StorageBolt
	cfg.Storage.BoltPath = filepath.Join(t.TempDir(), "board.db")
	f, err = NewRepositoryFactory(ctx, cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, config.StorageBolt, f.Backend())
	assert.NoError(t, f.Ping(ctx))
	assert.NoError(t, f.Close())

	cfg.Storage.Backend = "etcd"
	_, err = NewRepositoryFactory(ctx, cfg, logger)
	assert.Error(t, err)
}

func TestFactory_RedisFallsBackToMemory(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for redis retries")
	}
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.StorageRedis
	cfg.Redis.Address = "127.0.0.1:1"

	f, err := NewRepositoryFactory(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, config.StorageMemory, f.Backend())
	exerciseStore(t, f.KeyValueStore())
}
