package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// RistrettoPairCache memoizes single pair rates derived from snapshots for the
// conversion endpoint. Best-effort: an evicted or not-yet-admitted entry only
// costs a snapshot lookup.
type RistrettoPairCache struct {
	cache *ristretto.Cache
}

func NewPairCache(maxItems int64) (*RistrettoPairCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create pair rate cache failed: %w", err)
	}
	return &RistrettoPairCache{cache: c}, nil
}

func (c *RistrettoPairCache) Get(base, quote string) (float64, bool) {
	if v, ok := c.cache.Get(toKey(base, quote)); ok {
		value, ok := v.(float64)
		return value, ok
	}
	return 0, false
}

func (c *RistrettoPairCache) Set(base, quote string, value float64, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.cache.SetWithTTL(toKey(base, quote), value, 1, ttl)
}

func (c *RistrettoPairCache) Close() { c.cache.Close() }

func toKey(base, quote string) string { return base + ":" + quote }
