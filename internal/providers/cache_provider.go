package providers

import (
	"time"
	"unsafe"

	"github.com/coocood/freecache"

	"tracer/internal/structures"
)

const defaultCacheTTL = time.Minute

type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// CacheProvider holds rendered view responses. Keys carry the store
// revision, so stale entries are never read and just age out.
type CacheProvider struct {
	cache *freecache.Cache
	ttl   int
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "View cache disabled")
		return &noopCache{}
	}

	sizeBytes := conf.Cache.Size * 1024 * 1024
	ttl := conf.Cache.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	seconds := max(int(ttl.Seconds()), 1)

	logger.Infof(TypeApp, "View cache initialized: %dMB, TTL=%ds", conf.Cache.Size, seconds)

	return &CacheProvider{
		cache: freecache.NewCache(sizeBytes),
		ttl:   seconds,
	}
}

// freecache copies keys, so the returned slice is only read.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set(unsafeStringToBytes(key), value, c.ttl)
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
