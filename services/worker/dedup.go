package worker

import (
	stderrors "errors"
	"time"

	"sjsage522/weibosearch/logger"
	"sjsage522/weibosearch/services/cache"
)

const seenKeyPrefix = "weibo:seen:"

// Dedup remembers post ids already handed to the sinks. Backed by
// memcache it survives restarts; backed by the memory cache it lasts one run.
type Dedup struct {
	cache cache.CacheService
	ttl   time.Duration
}

// NewDedup creates a dedup over c. A ttl of 0 keeps ids until evicted.
func NewDedup(c cache.CacheService, ttl time.Duration) *Dedup {
	return &Dedup{cache: c, ttl: ttl}
}

// Seen marks id as seen and reports whether it had been seen before.
// Cache failures count as unseen so a broken cache never drops records.
func (d *Dedup) Seen(id string) bool {
	err := d.cache.Add(seenKeyPrefix+id, []byte{1}, d.ttl)
	if err == nil {
		return false
	}
	if stderrors.Is(err, cache.ErrNotStored) {
		return true
	}
	logger.ForCache().Warn().Err(err).Str("id", id).Msg("Dedup lookup failed")
	return false
}

// Forget removes id so a later sighting is accepted again
func (d *Dedup) Forget(id string) {
	if err := d.cache.Delete(seenKeyPrefix + id); err != nil {
		logger.ForCache().Warn().Err(err).Str("id", id).Msg("Dedup delete failed")
	}
}
