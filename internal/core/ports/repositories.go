package ports

import (
	"context"
)

// KeyValueStore holds small documents under string keys. It is the
// server-side stand-in for the browser's local storage; values are opaque
// to it. Get returns domain.ErrKeyNotFound for a missing key and Delete of a
// missing key is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
