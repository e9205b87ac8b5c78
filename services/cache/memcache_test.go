package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")
	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	key := "weibosearch_test_" + time.Now().Format("150405.000000")

	_, err := mc.Get(key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mc.Set(key, []byte("test_value"), 5*time.Second))
	value, err := mc.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "test_value", string(value))

	assert.ErrorIs(t, mc.Add(key, []byte("other"), 5*time.Second), ErrNotStored)

	require.NoError(t, mc.Delete(key))
	require.NoError(t, mc.Delete(key))
	_, err = mc.Get(key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mc.Add(key, []byte("fresh"), 5*time.Second))
	require.NoError(t, mc.Delete(key))
}
