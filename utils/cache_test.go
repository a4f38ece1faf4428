package utils

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestPublicCacheKey(t *testing.T) {
	qt.Assert(t, PublicCacheKey("pages", "map", "zoom=4"), qt.Equals, "cache:public:pages:map:zoom=4")
}

func TestCacheWithoutRedis(t *testing.T) {
	c := qt.New(t)
	SetRedis(nil)

	CacheSetBytes("cache:public:x", []byte("y"), 0)
	CacheSetJSON("cache:public:z", map[string]int{"a": 1}, 0)
	_, ok := CacheGetBytes("cache:public:x")
	c.Assert(ok, qt.IsFalse)
	InvalidatePublicCache()
}
