// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pingcap/sqlast/pkg/metrics"
	"github.com/stretchr/testify/require"
)

func TestGetAfterPut(t *testing.T) {
	c := NewParseCache(10, time.Hour, 4)
	k := Key{SQL: "SELECT 1", Dialect: "mysql"}
	_, ok := c.Get(k)
	require.False(t, ok)

	c.Put(k, Parsed([]byte(`[{"type":"SelectStmt"}]`)))
	v, ok := c.Get(k)
	require.True(t, ok)
	require.False(t, v.Failed())
	require.Equal(t, `[{"type":"SelectStmt"}]`, string(v.AST))

	// same SQL, different dialect
	_, ok = c.Get(Key{SQL: "SELECT 1", Dialect: "postgresql"})
	require.False(t, ok)

	// failures are cached too
	bad := Key{SQL: "SELEC", Dialect: "mysql"}
	c.Put(bad, Failed("syntax error"))
	v, ok = c.Get(bad)
	require.True(t, ok)
	require.True(t, v.Failed())
	require.Equal(t, "syntax error", v.ErrMsg)

	// replace wholesale
	c.Put(bad, Parsed([]byte("[]")))
	v, ok = c.Get(bad)
	require.True(t, ok)
	require.False(t, v.Failed())
	require.Equal(t, 2, c.Len())
}

func TestCapacityBound(t *testing.T) {
	tests := []struct {
		capacity int
		shards   int
	}{
		{1, 16},
		{10, 1},
		{10, 3},
		{17, 16},
		{100, 16},
	}
	for _, test := range tests {
		c := NewParseCache(test.capacity, time.Hour, test.shards)
		require.Equal(t, test.capacity, c.Capacity())
		require.LessOrEqual(t, c.Shards(), test.capacity)
		for i := 0; i < test.capacity*5; i++ {
			c.Put(Key{SQL: fmt.Sprintf("SELECT %d", i), Dialect: "generic"}, Parsed(nil))
			require.LessOrEqual(t, c.Len(), test.capacity)
		}
	}
}

func TestLRUOrder(t *testing.T) {
	c := NewParseCache(3, 0, 1)
	key := func(i int) Key {
		return Key{SQL: fmt.Sprintf("SELECT %d", i), Dialect: "generic"}
	}
	for i := 0; i < 3; i++ {
		c.Put(key(i), Parsed(nil))
	}
	// touch 0 so that 1 becomes the least recently used
	_, ok := c.Get(key(0))
	require.True(t, ok)

	before, err := metrics.ReadCounter(metrics.CacheEvictionCounter)
	require.NoError(t, err)
	c.Put(key(3), Parsed(nil))
	after, err := metrics.ReadCounter(metrics.CacheEvictionCounter)
	require.NoError(t, err)
	require.Equal(t, before+1, after)

	_, ok = c.Get(key(1))
	require.False(t, ok)
	for _, i := range []int{0, 2, 3} {
		_, ok = c.Get(key(i))
		require.True(t, ok, i)
	}
}

func TestTTL(t *testing.T) {
	c := NewParseCache(10, 100*time.Millisecond, 2)
	require.Equal(t, 100*time.Millisecond, c.TTL())
	k := Key{SQL: "SELECT 1", Dialect: "generic"}
	c.Put(k, Parsed(nil))
	_, ok := c.Get(k)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		_, ok := c.Get(k)
		return !ok
	}, 3*time.Second, 10*time.Millisecond)

	// zero ttl never expires
	c = NewParseCache(10, 0, 2)
	c.Put(k, Parsed(nil))
	time.Sleep(150 * time.Millisecond)
	_, ok = c.Get(k)
	require.True(t, ok)
}

func TestPurge(t *testing.T) {
	c := NewParseCache(10, time.Hour, 4)
	for i := 0; i < 5; i++ {
		c.Put(Key{SQL: fmt.Sprintf("SELECT %d", i), Dialect: "generic"}, Parsed(nil))
	}
	require.Equal(t, 5, c.Len())
	c.Purge()
	require.Equal(t, 0, c.Len())
	_, ok := c.Get(Key{SQL: "SELECT 0", Dialect: "generic"})
	require.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	const capacity = 64
	c := NewParseCache(capacity, time.Minute, 8)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := Key{SQL: fmt.Sprintf("SELECT %d", (g*7+i)%200), Dialect: "generic"}
				if v, ok := c.Get(k); ok {
					if string(v.AST) != k.SQL {
						t.Errorf("got %q for %q", v.AST, k.SQL)
						return
					}
					continue
				}
				c.Put(k, Parsed([]byte(k.SQL)))
			}
		}(g)
	}
	wg.Wait()
	require.LessOrEqual(t, c.Len(), capacity)
}
