package hsm

import (
	"crypto/sha256"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

const defaultCacheSize = 1024

// CacheStats reports IPEK cache usage.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// ipekCache memoises IPEKs by device. A nil lru disables caching.
type ipekCache struct {
	lru    *lru.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

func newIPEKCache(size int) (*ipekCache, error) {
	c := &ipekCache{}
	if size <= 0 {
		return c, nil
	}

	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	c.lru = l

	return c, nil
}

// cacheKey identifies a device: the BDK and the KSN bits that feed the IPEK.
func cacheKey(bdk, ksn []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write(bdk)
	prefix := make([]byte, 8)
	copy(prefix, ksn)
	prefix[7] &= 0xE0
	h.Write(prefix)

	var key [sha256.Size]byte
	copy(key[:], h.Sum(nil))

	return key
}

func (c *ipekCache) get(key [sha256.Size]byte) ([]byte, bool) {
	if c.lru == nil {
		c.misses.Add(1)

		return nil, false
	}
	v, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)

		return nil, false
	}
	c.hits.Add(1)

	return append([]byte(nil), v.([]byte)...), true
}

func (c *ipekCache) add(key [sha256.Size]byte, ipek []byte) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, append([]byte(nil), ipek...))
}

func (c *ipekCache) purge() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

func (c *ipekCache) stats() CacheStats {
	s := CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if c.lru != nil {
		s.Entries = c.lru.Len()
	}

	return s
}
