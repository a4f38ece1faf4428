package utils

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/tripjournal/metrics"
)

const (
	// PublicCachePrefix namespaces every cached public projection.
	PublicCachePrefix = "cache:public:"

	defaultCacheTTL   = time.Hour
	cacheOpTimeout    = 2 * time.Second
	invalidateTimeout = 3 * time.Second
	invalidateRounds  = 10
	scanBatch         = 1000
)

// PublicCacheKey builds a key under PublicCachePrefix, e.g. cache:public:pages:map:zoom=4.
func PublicCacheKey(parts ...string) string {
	return PublicCachePrefix + strings.Join(parts, ":")
}

// withRedis runs fn against the installed client under timeout. It reports false
// when Redis is disabled.
func withRedis(timeout time.Duration, fn func(ctx context.Context, rc *redis.Client)) bool {
	rc := GetRedis()
	if rc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	fn(ctx, rc)
	return true
}

// CacheGetBytes returns the bytes cached under key. Without Redis every lookup misses.
func CacheGetBytes(key string) (b []byte, hit bool) {
	withRedis(cacheOpTimeout, func(ctx context.Context, rc *redis.Client) {
		var err error
		b, err = rc.Get(ctx, key).Bytes()
		hit = err == nil
		if hit {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		if err != redis.Nil {
			Sugar.Warnf("cache get failed key=%s err=%v", key, err)
		}
	})
	return b, hit
}

// CacheSetBytes stores b under key for ttl; ttl <= 0 means one hour.
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	withRedis(cacheOpTimeout, func(ctx context.Context, rc *redis.Client) {
		if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
			Sugar.Warnf("cache set failed key=%s err=%v", key, err)
		}
	})
}

// CacheSetJSON stores the JSON encoding of v.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	if GetRedis() == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		Sugar.Warnf("cache encode failed key=%s err=%v", key, err)
		return
	}
	CacheSetBytes(key, b, ttl)
}

// InvalidatePublicCache drops every cached public projection after a write.
func InvalidatePublicCache() {
	InvalidateByPrefix(PublicCachePrefix)
}

// InvalidateByPrefix deletes the keys starting with prefix, scanning in bounded rounds.
func InvalidateByPrefix(prefix string) {
	withRedis(invalidateTimeout, func(ctx context.Context, rc *redis.Client) {
		var cursor uint64
		for round := 0; round < invalidateRounds; round++ {
			keys, next, err := rc.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
			if err != nil {
				Sugar.Warnf("cache invalidate scan failed prefix=%s err=%v", prefix, err)
				return
			}
			if len(keys) > 0 {
				if err := rc.Unlink(ctx, keys...).Err(); err != nil {
					Sugar.Warnf("cache invalidate failed prefix=%s err=%v", prefix, err)
				}
			}
			if cursor = next; cursor == 0 {
				return
			}
		}
		Sugar.Warnf("cache invalidate stopped after %d rounds prefix=%s", invalidateRounds, prefix)
	})
}
