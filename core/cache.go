package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dosco/sqlbridge/core/internal/dialect"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
	"go.uber.org/zap"
)

// SharedCache stores converted statements outside the process so that
// several instances can share them. Errors are logged and treated as a miss.
type SharedCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

type Cache struct {
	cache  *lru.TwoQueueCache[string, Statement]
	shared SharedCache
	log    *zap.Logger
}

// outputOptions are the settings that change the converted text
type outputOptions struct {
	Pretty               bool
	MarkComplex          bool
	OrderByImpliesWindow bool
}

// initCache initializes the cache, a nil cache is a no-op
func (sb *Bridge) initCache() (err error) {
	sb.optsHash, err = hashstructure.Hash(outputOptions{
		Pretty:               sb.conf.Pretty,
		MarkComplex:          *sb.conf.MarkComplex,
		OrderByImpliesWindow: sb.conf.OrderByImpliesWindow,
	}, hashstructure.FormatV2, nil)
	if err != nil {
		return
	}

	if sb.conf.CacheSize < 0 {
		return
	}
	sb.cache.cache, err = lru.New2Q[string, Statement](sb.conf.CacheSize)
	return
}

// cacheKey identifies a statement conversion. Options that change the
// output are part of the key.
func (sb *Bridge) cacheKey(stmt string, from, to dialect.ID) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%x\x00", from, to, sb.optsHash)
	h.Write([]byte(stmt))
	return hex.EncodeToString(h.Sum(nil))
}

// OptionSetSharedCache adds a second level cache shared between instances
func OptionSetSharedCache(c SharedCache) Option {
	return func(sb *Bridge) error {
		if c == nil {
			return errors.New("shared cache is nil")
		}
		sb.cache.shared = c
		return nil
	}
}

// Get returns the value from the cache
func (c Cache) Get(ctx context.Context, key string) (val Statement, fromCache bool) {
	if c.cache != nil {
		if val, fromCache = c.cache.Get(key); fromCache {
			return
		}
	}

	if c.shared == nil {
		return
	}

	b, ok, err := c.shared.Get(ctx, key)
	if err != nil {
		c.log.Warn("shared cache get", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	if err := json.Unmarshal(b, &val); err != nil {
		c.log.Warn("shared cache entry", zap.String("key", key), zap.Error(err))
		return Statement{}, false
	}

	if c.cache != nil {
		c.cache.Add(key, val)
	}
	return val, true
}

// Set sets the value in the cache
func (c Cache) Set(ctx context.Context, key string, val Statement) {
	if c.cache != nil {
		c.cache.Add(key, val)
	}

	if c.shared == nil {
		return
	}

	b, err := json.Marshal(val)
	if err != nil {
		c.log.Warn("shared cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.shared.Set(ctx, key, b); err != nil {
		c.log.Warn("shared cache set", zap.Error(err))
	}
}
