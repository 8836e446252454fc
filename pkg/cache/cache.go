// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cache keeps recent parse results, both successes and failures,
// bounded by entry count and age.
package cache

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pingcap/sqlast/pkg/metrics"
)

// Key identifies a parse result. Both parts are compared exactly.
type Key struct {
	SQL     string
	Dialect string
}

// Value is either a serialized syntax tree or a recorded parse failure.
// It is never modified after it is stored.
type Value struct {
	AST    []byte
	ErrMsg string
	failed bool
}

func Parsed(ast []byte) Value {
	return Value{AST: ast}
}

func Failed(msg string) Value {
	return Value{ErrMsg: msg, failed: true}
}

func (v Value) Failed() bool {
	return v.failed
}

// ParseCache is an LRU cache split into shards, each with its own lock.
// Shard capacities add up to the configured capacity, so the cache never
// holds more entries than that. Expired entries read as misses.
type ParseCache struct {
	shards   []*expirable.LRU[Key, Value]
	capacity int
	ttl      time.Duration
}

// NewParseCache creates a cache. A ttl <= 0 disables time-based expiry.
// capacity must be positive.
func NewParseCache(capacity int, ttl time.Duration, shards int) *ParseCache {
	if capacity <= 0 {
		capacity = 1
	}
	if shards <= 0 {
		shards = 1
	}
	if shards > capacity {
		shards = capacity
	}
	c := &ParseCache{
		shards:   make([]*expirable.LRU[Key, Value], shards),
		capacity: capacity,
		ttl:      ttl,
	}
	onEvict := func(Key, Value) {
		metrics.CacheEvictionCounter.Inc()
	}
	for i := range c.shards {
		size := capacity / shards
		if i < capacity%shards {
			size++
		}
		c.shards[i] = expirable.NewLRU[Key, Value](size, onEvict, ttl)
	}
	return c
}

func (c *ParseCache) shard(k Key) *expirable.LRU[Key, Value] {
	if len(c.shards) == 1 {
		return c.shards[0]
	}
	h := xxhash.Sum64String(k.SQL) ^ xxhash.Sum64String(k.Dialect)
	return c.shards[h%uint64(len(c.shards))]
}

func (c *ParseCache) Get(k Key) (Value, bool) {
	v, ok := c.shard(k).Get(k)
	if ok {
		metrics.CacheLookupCounter.WithLabelValues(metrics.LookupHit).Inc()
	} else {
		metrics.CacheLookupCounter.WithLabelValues(metrics.LookupMiss).Inc()
	}
	return v, ok
}

// Put inserts or replaces the entry and restarts its TTL.
func (c *ParseCache) Put(k Key, v Value) {
	c.shard(k).Add(k, v)
	metrics.CacheEntriesGauge.Set(float64(c.Len()))
}

// Len counts resident entries, including expired ones not reclaimed yet.
func (c *ParseCache) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.Len()
	}
	return n
}

func (c *ParseCache) Purge() {
	for _, s := range c.shards {
		s.Purge()
	}
	metrics.CacheEntriesGauge.Set(0)
}

func (c *ParseCache) Capacity() int {
	return c.capacity
}

func (c *ParseCache) TTL() time.Duration {
	return c.ttl
}

func (c *ParseCache) Shards() int {
	return len(c.shards)
}
