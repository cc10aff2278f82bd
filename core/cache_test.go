package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dosco/sqlbridge/core/internal/transpile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	sync.Mutex
	m   map[string][]byte
	err error
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.Lock()
	defer c.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, val []byte) error {
	c.Lock()
	defer c.Unlock()
	if c.err != nil {
		return c.err
	}
	c.m[key] = val
	return nil
}

const windowQuery = "SELECT id, RANK() OVER (ORDER BY id) AS r FROM t;"

func TestSharedCache(t *testing.T) {
	shared := &mapCache{m: map[string][]byte{}}
	noLocal := &Config{CacheSize: -1}

	e1 := &transpile.Stub{}
	sb1 := newBridge(t, noLocal, OptionSetEngine(e1), OptionSetSharedCache(shared))

	res1, err := sb1.Convert(context.Background(), windowQuery, "mysql", "postgres")
	require.NoError(t, err)
	assert.Equal(t, 1, e1.Calls())
	assert.Len(t, shared.m, 1)

	// a second instance finds the statement in the shared cache
	e2 := &transpile.Stub{}
	sb2 := newBridge(t, noLocal, OptionSetEngine(e2), OptionSetSharedCache(shared))

	res2, err := sb2.Convert(context.Background(), windowQuery, "mysql", "postgres")
	require.NoError(t, err)
	assert.Equal(t, 0, e2.Calls())
	assert.Equal(t, res1.Script, res2.Script)
	assert.Equal(t, res1.Statements[0].Features, res2.Statements[0].Features)
	assert.Equal(t, res1.Statements[0].Kind, res2.Statements[0].Kind)

	// other output options use other keys
	e3 := &transpile.Stub{}
	sb3 := newBridge(t, &Config{CacheSize: -1, Pretty: true},
		OptionSetEngine(e3), OptionSetSharedCache(shared))

	_, err = sb3.Convert(context.Background(), windowQuery, "mysql", "postgres")
	require.NoError(t, err)
	assert.Equal(t, 1, e3.Calls())
	assert.Len(t, shared.m, 2)
}

func TestSharedCacheErrors(t *testing.T) {
	shared := &mapCache{m: map[string][]byte{}, err: errors.New("connection refused")}

	e := &transpile.Stub{}
	sb := newBridge(t, &Config{CacheSize: -1}, OptionSetEngine(e), OptionSetSharedCache(shared))

	res, err := sb.Convert(context.Background(), windowQuery, "mysql", "postgres")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Calls())
	assert.Equal(t, 1, res.Tally.Complex)

	_, err = New(nil, OptionSetSharedCache(nil))
	assert.Error(t, err)
}

func TestSharedCacheBadEntry(t *testing.T) {
	shared := &mapCache{m: map[string][]byte{}}

	e := &transpile.Stub{}
	sb := newBridge(t, &Config{CacheSize: -1}, OptionSetEngine(e), OptionSetSharedCache(shared))

	shared.m[sb.cacheKey(windowQuery, "mysql", "postgres")] = []byte("{")

	_, err := sb.Convert(context.Background(), windowQuery, "mysql", "postgres")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Calls())
}

func TestCacheKey(t *testing.T) {
	a := newBridge(t, nil)
	b := newBridge(t, &Config{OrderByImpliesWindow: true})

	assert.Equal(t, a.cacheKey("SELECT 1;", "mysql", "postgres"), a.cacheKey("SELECT 1;", "mysql", "postgres"))
	assert.NotEqual(t, a.cacheKey("SELECT 1;", "mysql", "postgres"), a.cacheKey("SELECT 1;", "mysql", "oracle"))
	assert.NotEqual(t, a.cacheKey("SELECT 1;", "mysql", "postgres"), b.cacheKey("SELECT 1;", "mysql", "postgres"))
}
