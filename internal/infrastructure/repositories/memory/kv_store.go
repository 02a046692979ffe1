package memory

import (
	"context"
	"sync"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
)

type MemoryKeyValueStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

func NewMemoryKeyValueStore() ports.KeyValueStore {
	return &MemoryKeyValueStore{
		data: make(map[string][]byte),
	}
}

func (s *MemoryKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryKeyValueStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

func (s *MemoryKeyValueStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryKeyValueStore) Close() error {
	return nil
}
