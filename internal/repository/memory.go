package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryResponseCache is the in-process cache used when redis is not configured or is down.
type MemoryResponseCache struct {
	entries    sync.Map
	generation atomic.Int64
	now        func() time.Time
}

func NewMemoryResponseCache() *MemoryResponseCache {
	return &MemoryResponseCache{now: time.Now}
}

func (r *MemoryResponseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok := r.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	entry := val.(*memoryEntry)
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		r.entries.CompareAndDelete(key, val)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (r *MemoryResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := &memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.entries.Store(key, entry)
	return nil
}

func (r *MemoryResponseCache) Generation(ctx context.Context) (int64, error) {
	return r.generation.Load(), nil
}

// Bump advances the generation and drops every stored entry, since none of them can be read again.
func (r *MemoryResponseCache) Bump(ctx context.Context) (int64, error) {
	gen := r.generation.Add(1)
	r.entries.Range(func(key, _ any) bool {
		r.entries.Delete(key)
		return true
	})
	return gen, nil
}
