package common

import (
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

// Add stores the value only if the key is not present yet.
func (c *Cache) Add(key string, value interface{}, expiration time.Duration) error {
	return c.Cache.Add(key, value, expiration)
}

func (c *Cache) Delete(key string) {
	c.Cache.Delete(key)
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

func CacheKeySession(tokenHash []byte) string {
	return "session:" + string(tokenHash)
}

func CacheKeyRateLimit(scope, client string) string {
	return "ratelimit:" + scope + ":" + client
}
