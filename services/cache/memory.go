package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCacheSize bounds the in-process cache; the least recently
// used keys are evicted beyond it.
const DefaultMemoryCacheSize = 1 << 20

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryCache implements CacheService in process on a bounded LRU.
// Entries carry their own expiry because the rate-limit block and the
// dedup keys use different lifetimes in the same cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, entry]
	now     func() time.Time
}

// NewMemoryCache creates an empty cache of DefaultMemoryCacheSize keys
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheSize(DefaultMemoryCacheSize)
}

// NewMemoryCacheSize creates an empty cache holding at most size keys
func NewMemoryCacheSize(size int) *MemoryCache {
	entries, err := lru.New[string, entry](max(size, 1))
	if err != nil {
		panic(err)
	}
	return &MemoryCache{entries: entries, now: time.Now}
}

// Get retrieves a live value
func (m *MemoryCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value; a zero expiration never expires
func (m *MemoryCache) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Add(key, m.newEntry(value, expiration))
	return nil
}

// Add stores a value unless a live one exists. The check and the insert
// happen under one lock; an expired entry counts as absent.
func (m *MemoryCache) Add(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookup(key); ok {
		return ErrNotStored
	}
	m.entries.Add(key, m.newEntry(value, expiration))
	return nil
}

// Delete removes a value
func (m *MemoryCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Remove(key)
	return nil
}

func (m *MemoryCache) lookup(key string) (entry, bool) {
	e, ok := m.entries.Get(key)
	if !ok {
		return entry{}, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.entries.Remove(key)
		return entry{}, false
	}
	return e, true
}

func (m *MemoryCache) newEntry(value []byte, expiration time.Duration) entry {
	e := entry{value: value}
	if expiration > 0 {
		e.expires = m.now().Add(expiration)
	}
	return e
}
