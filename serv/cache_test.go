package serv

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedCacheConfig(t *testing.T) {
	conf := newTestConfig(t, `
shared_cache:
  type: redis
  url: redis://localhost:6379/2
  ttl: 1h
`)
	assert.Equal(t, "redis", conf.Cache.Type)
	assert.Equal(t, time.Hour, conf.Cache.TTL)

	c, err := newSharedCache(conf.Cache)
	require.NoError(t, err)
	defer c.Close()

	rc := c.(*redisCache)
	assert.Equal(t, defaultCachePrefix, rc.prefix)
	assert.Equal(t, time.Hour, rc.ttl)

	c, err = newSharedCache(CacheConfig{Type: "memcache", URL: " 127.0.0.1:11211, 127.0.0.2:11211 ,"})
	require.NoError(t, err)
	assert.Equal(t, defaultCacheTTL, c.(*memcacheCache).ttl)

	_, err = newSharedCache(CacheConfig{Type: "memcache", URL: " , "})
	assert.Error(t, err)

	_, err = newSharedCache(CacheConfig{Type: "mongo"})
	assert.Error(t, err)

	// the url is required once a type is set
	_, err = NewService(newTestConfig(t, "shared_cache:\n  type: redis\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared_cache.url")
}

// a cache that cannot be reached slows nothing down and fails nothing
func TestSharedCacheUnreachable(t *testing.T) {
	for _, yaml := range []string{
		"shared_cache:\n  type: redis\n  url: redis://127.0.0.1:1\n",
		"shared_cache:\n  type: memcache\n  url: 127.0.0.1:1\n",
	} {
		_, ts := newTestServer(t, newTestConfig(t, yaml))

		resp := postJSON(t, ts.URL+routeSQL, SQLRequest{SQL: createTable})
		require.Equal(t, http.StatusOK, resp.StatusCode, yaml)

		var res TranspileResponse
		decodeBody(t, resp, &res)
		assert.True(t, res.Success)
	}
}

func TestRedisCache(t *testing.T) {
	if os.Getenv("SB_INTEGRATION") == "" {
		t.Skip("set SB_INTEGRATION to run tests that start containers")
	}

	c, err := gnomock.Start(redis.Preset())
	require.NoError(t, err)
	defer gnomock.Stop(c) //nolint:errcheck

	rc := newRedisCache(CacheConfig{
		URL:    "redis://" + c.DefaultAddress(),
		Prefix: "test:",
		TTL:    time.Minute,
	})
	defer rc.Close()

	ctx := context.Background()

	_, ok, err := rc.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.Set(ctx, "k", []byte("v")))

	v, ok, err := rc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	// two services share conversions through redis
	yaml := "shared_cache:\n  type: redis\n  url: redis://" + c.DefaultAddress() + "\n"

	for i := 0; i < 2; i++ {
		_, ts := newTestServer(t, newTestConfig(t, yaml))
		resp := postJSON(t, ts.URL+routeSQL, SQLRequest{SQL: createTable})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}
