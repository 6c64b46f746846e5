package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is a process-local Cache. Expired keys are dropped lazily.
type MemoryCache struct {
	mu sync.Mutex
	// expiresAt holds the expiry per key; the zero time never expires.
	expiresAt map[string]time.Time
	now       func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{expiresAt: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryCache) live(key string) bool {
	exp, ok := m.expiresAt[key]
	if !ok {
		return false
	}
	if !exp.IsZero() && !m.now().Before(exp) {
		delete(m.expiresAt, key)
		return false
	}
	return true
}

// SetNX claims key when it is absent or expired. Only the key's presence
// is tracked, so value is not stored.
func (m *MemoryCache) SetNX(_ context.Context, key string, _ interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live(key) {
		return false, nil
	}
	var exp time.Time
	if expiration > 0 {
		exp = m.now().Add(expiration)
	}
	m.expiresAt[key] = exp
	return true, nil
}
