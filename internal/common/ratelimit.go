package common

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client key. Buckets live in the
// cache and are evicted after idleTTL without traffic.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *Cache
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

func NewRateLimiter(rps float64, burst int, idleTTL time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: NewCache(idleTTL, 2*idleTTL),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (l *RateLimiter) Allow(scope, key string) bool {
	cacheKey := CacheKeyRateLimit(scope, key)

	l.mu.Lock()
	defer l.mu.Unlock()

	var limiter *rate.Limiter
	if v, ok := l.buckets.Get(cacheKey); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}

	// refresh the idle expiry on every hit
	l.buckets.Set(cacheKey, limiter, l.idleTTL)

	return limiter.Allow()
}
