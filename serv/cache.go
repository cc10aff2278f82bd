package serv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/dosco/sqlbridge/core"
	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

const (
	defaultCachePrefix = "sqlbridge:"
	defaultCacheTTL    = 24 * time.Hour

	// memcache reads larger expirations as a unix time
	memcacheMaxRelTTL = 30 * 24 * time.Hour
)

// CacheConfig sets up a conversion cache shared by all service instances
type CacheConfig struct {
	// Cache backend, redis or memcache
	Type string `mapstructure:"type" jsonschema:"title=Type,enum=redis,enum=memcache" validate:"omitempty,oneof=redis memcache"`

	// redis://[user:password@]host:port[/db] for redis, a comma separated
	// list of host:port for memcache
	URL string `mapstructure:"url" jsonschema:"title=URL,example=redis://localhost:6379/0" validate:"required_with=Type"`

	// How long a converted statement is kept
	TTL time.Duration `mapstructure:"ttl" jsonschema:"title=Entry Lifetime,default=24h" validate:"gte=0"`

	// Prefix added to every key
	Prefix string `mapstructure:"prefix" jsonschema:"title=Key Prefix,default=sqlbridge:"`
}

type sharedCache interface {
	core.SharedCache
	Close() error
}

func newSharedCache(c CacheConfig) (sharedCache, error) {
	if c.Prefix == "" {
		c.Prefix = defaultCachePrefix
	}
	if c.TTL == 0 {
		c.TTL = defaultCacheTTL
	}

	switch c.Type {
	case "redis":
		return newRedisCache(c), nil
	case "memcache":
		return newMemcache(c)
	default:
		return nil, fmt.Errorf("unknown cache type: %s", c.Type)
	}
}

type redisCache struct {
	pool   *redis.Pool
	prefix string
	ttl    time.Duration
}

func newRedisCache(c CacheConfig) *redisCache {
	url := c.URL

	pool := &redis.Pool{
		MaxIdle:     8,
		IdleTimeout: 5 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(url,
				redis.DialConnectTimeout(2*time.Second),
				redis.DialReadTimeout(time.Second),
				redis.DialWriteTimeout(time.Second))
		},
	}
	return &redisCache{pool: pool, prefix: c.Prefix, ttl: c.TTL}
}

func (rc *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	conn, err := rc.pool.GetContext(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "redis")
	}
	defer conn.Close()

	v, err := redis.Bytes(conn.Do("GET", rc.prefix+key))
	if err == redis.ErrNil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis")
	}
	return v, true, nil
}

func (rc *redisCache) Set(ctx context.Context, key string, val []byte) error {
	conn, err := rc.pool.GetContext(ctx)
	if err != nil {
		return errors.Wrap(err, "redis")
	}
	defer conn.Close()

	_, err = conn.Do("SET", rc.prefix+key, val, "PX", rc.ttl.Milliseconds())
	return errors.Wrap(err, "redis")
}

func (rc *redisCache) Close() error {
	return rc.pool.Close()
}

type memcacheCache struct {
	mc     *memcache.Client
	prefix string
	ttl    time.Duration
}

func newMemcache(c CacheConfig) (*memcacheCache, error) {
	var servers []string
	for _, s := range strings.Split(c.URL, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	if len(servers) == 0 {
		return nil, errors.New("memcache: no servers")
	}

	mc := memcache.New(servers...)
	mc.Timeout = time.Second

	return &memcacheCache{mc: mc, prefix: c.Prefix, ttl: c.TTL}, nil
}

func (m *memcacheCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	it, err := m.mc.Get(m.prefix + key)
	if err == memcache.ErrCacheMiss {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "memcache")
	}
	return it.Value, true, nil
}

func (m *memcacheCache) Set(_ context.Context, key string, val []byte) error {
	exp := int32(m.ttl / time.Second)
	if m.ttl > memcacheMaxRelTTL {
		exp = int32(time.Now().Add(m.ttl).Unix())
	}

	err := m.mc.Set(&memcache.Item{Key: m.prefix + key, Value: val, Expiration: exp})
	return errors.Wrap(err, "memcache")
}

func (m *memcacheCache) Close() error {
	return nil
}
