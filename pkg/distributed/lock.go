package distributed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockTimeout = errors.New("lock acquisition timeout")
	ErrLockNotHeld = errors.New("lock was not held by this instance")
)

const retryInterval = 100 * time.Millisecond

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock is a single-holder lease stored in Redis. The lease is renewed at
// half its TTL until Unlock is called.
type Lock struct {
	client redis.Cmdable
	key    string
	token  string
	ttl    time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewLock creates a lock for key. Nothing is written until Lock or TryLock.
func NewLock(client redis.Cmdable, key string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		key:    key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Key returns the Redis key backing the lock.
func (l *Lock) Key() string { return l.key }

// TryLock attempts a single acquisition.
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to try lock %s: %w", l.key, err)
	}
	if ok {
		l.startRenewal()
	}
	return ok, nil
}

// Lock retries until acquired, the timeout elapses or ctx ends.
func (l *Lock) Lock(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// Unlock stops renewal and releases the lease if it is still ours.
func (l *Lock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if l.stop != nil {
		close(l.stop)
		<-l.done
		l.stop, l.done = nil, nil
	}
	l.mu.Unlock()

	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (l *Lock) startRenewal() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.renew(l.stop, l.done)
}

func (l *Lock) renew(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/2)
			cur, err := l.client.Get(ctx, l.key).Result()
			if err == nil && cur == l.token {
				l.client.Expire(ctx, l.key, l.ttl)
			}
			cancel()
			if err != nil || cur != l.token {
				// lost the lease
				return
			}
		}
	}
}

// Manager hands out locks under a common key prefix.
type Manager struct {
	client redis.Cmdable
	prefix string
}

func NewManager(client redis.Cmdable, prefix string) *Manager {
	return &Manager{client: client, prefix: prefix}
}

func (m *Manager) NewLock(name string, ttl time.Duration) *Lock {
	return NewLock(m.client, m.prefix+name, ttl)
}

// WithLock runs fn while holding the named lock.
func (m *Manager) WithLock(ctx context.Context, name string, ttl, wait time.Duration, fn func(ctx context.Context) error) error {
	lock := m.NewLock(name, ttl)
	if err := lock.Lock(ctx, wait); err != nil {
		return err
	}
	defer lock.Unlock(context.WithoutCancel(ctx))
	return fn(ctx)
}
