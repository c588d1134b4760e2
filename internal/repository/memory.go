package repository

import (
	"context"
	"sync"
	"time"
)

// MemorySessionRepository keeps session state in-process. Used directly in
// tests and as the fallback behind the failover repository. Sessions carry a
// rolling TTL so the memory store expires idle sessions the same way the
// redis store does.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ttl      time.Duration

	rateMu     sync.Mutex
	rateLimits map[string]*rateLimitEntry
}

type sessionEntry struct {
	kv        map[string][]byte
	expiresAt time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions:   make(map[string]*sessionEntry),
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
	}
}

func (e *sessionEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (r *MemorySessionRepository) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sessionID]
	if !ok || entry.expired(time.Now()) {
		return nil, nil
	}
	val, ok := entry.kv[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (r *MemorySessionRepository) Put(ctx context.Context, sessionID, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	entry, ok := r.sessions[sessionID]
	if !ok || entry.expired(now) {
		entry = &sessionEntry{kv: make(map[string][]byte)}
		r.sessions[sessionID] = entry
	}
	if r.ttl > 0 {
		entry.expiresAt = now.Add(r.ttl)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	entry.kv[key] = stored
	return nil
}

func (r *MemorySessionRepository) Clear(ctx context.Context, sessionID string, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	if len(keys) == 0 {
		delete(r.sessions, sessionID)
		return nil
	}
	for _, key := range keys {
		delete(entry.kv, key)
	}
	if len(entry.kv) == 0 {
		delete(r.sessions, sessionID)
	}
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, clientID string, limit int, windowSeconds int) (bool, error) {
	r.rateMu.Lock()
	defer r.rateMu.Unlock()

	now := time.Now()
	entry, ok := r.rateLimits[clientID]
	if !ok || now.After(entry.expiresAt) {
		r.rateLimits[clientID] = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(time.Duration(windowSeconds) * time.Second),
		}
		return limit >= 1, nil
	}

	entry.count++
	return entry.count <= limit, nil
}
