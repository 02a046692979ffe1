package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/pkg/tracing"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("drawboard")

// BoltKeyValueStore keeps every key in a single bucket of a bbolt file.
type BoltKeyValueStore struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (ports.KeyValueStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create bolt directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bolt bucket: %w", err)
	}

	return &BoltKeyValueStore{db: db}, nil
}

func (s *BoltKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	_, span := tracing.TraceStorageOperation(ctx, "get", "bolt")
	defer span.End()

	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return domain.ErrKeyNotFound
		}
		// v is only valid inside the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}

func (s *BoltKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	_, span := tracing.TraceStorageOperation(ctx, "set", "bolt")
	defer span.End()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *BoltKeyValueStore) Delete(ctx context.Context, key string) error {
	_, span := tracing.TraceStorageOperation(ctx, "delete", "bolt")
	defer span.End()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (s *BoltKeyValueStore) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketName) == nil {
			return fmt.Errorf("bolt bucket %s missing", bucketName)
		}
		return nil
	})
}

func (s *BoltKeyValueStore) Close() error {
	return s.db.Close()
}
