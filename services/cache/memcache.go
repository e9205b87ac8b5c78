package cache

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService on a memcached server.
// Misses and refused adds are translated to ErrCacheMiss and ErrNotStored.
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService connects lazily to the given host:port
func NewMemcacheService(serverAddr string) *MemcacheService {
	client := memcache.New(serverAddr)
	client.Timeout = 500 * time.Millisecond
	return &MemcacheService{client: client}
}

// Ping checks that the server is reachable
func (m *MemcacheService) Ping() error {
	return m.client.Ping()
}

func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	switch {
	case errors.Is(err, memcache.ErrCacheMiss):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, err
	}
	return item.Value, nil
}

func (m *MemcacheService) Set(key string, value []byte, ttl time.Duration) error {
	return m.client.Set(item(key, value, ttl))
}

// Add stores value only when key is absent; it is the atomic
// first-writer-wins check behind duplicate detection.
func (m *MemcacheService) Add(key string, value []byte, ttl time.Duration) error {
	err := m.client.Add(item(key, value, ttl))
	if errors.Is(err, memcache.ErrNotStored) {
		return ErrNotStored
	}
	return err
}

// Delete is idempotent: removing an absent key is not an error
func (m *MemcacheService) Delete(key string) error {
	if err := m.client.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return err
	}
	return nil
}

// item builds a memcache item; a zero ttl never expires
func item(key string, value []byte, ttl time.Duration) *memcache.Item {
	return &memcache.Item{Key: key, Value: value, Expiration: int32(ttl / time.Second)}
}
