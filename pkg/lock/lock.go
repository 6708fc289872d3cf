package lock

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/noah-isme/univ-reg-api/pkg/errors"
)

// Locker provides mutual exclusion for a named resource key across
// independent request handlers. Acquire is a non-blocking poll: a losing
// contender gets ok=false immediately rather than waiting. The returned
// token identifies the holder and must be presented on Release so an
// expired lock re-acquired by someone else is never cleared by the
// previous holder.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// WithLock acquires the key, runs fn and releases the key on every path.
// Contention surfaces as ErrSectionBusy without running fn.
func WithLock(ctx context.Context, l Locker, key string, ttl time.Duration, fn func() error) error {
	token, ok, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire lock")
	}
	if !ok {
		return appErrors.ErrSectionBusy
	}
	defer func() {
		_ = l.Release(ctx, key, token)
	}()
	return fn()
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker is a single-process Locker with the same expiry and
// ownership semantics as the Redis implementation. It backs tests and
// single-node deployments where Redis is not configured.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryLocker constructs an in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]memoryEntry), now: time.Now}
}

// Acquire sets a marker for key unless a live one exists.
func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, held := l.entries[key]; held && entry.expiresAt.After(now) {
		return "", false, nil
	}

	token := newToken()
	l.entries[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// Release clears the marker for key if the token still owns it. Releasing
// an expired or re-acquired key is a no-op.
func (l *MemoryLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, held := l.entries[key]; held && entry.token == token {
		delete(l.entries, key)
	}
	return nil
}
