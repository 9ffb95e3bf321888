package engine

import (
	"sync"
	"time"

	"xiangqi/internal/xiangqi"
)

const (
	defaultCacheSize = 4096
	defaultCacheTTL  = 10 * time.Minute
)

type cacheKey struct {
	board      string
	side       xiangqi.Side
	difficulty Difficulty
}

type cacheEntry struct {
	move   xiangqi.Move
	score  int
	depth  int
	stored time.Time
}

// resultCache 跨顶层调用共享：局面 + 走子方 + 难度 -> 最佳着法。
// 读写锁保护；满了整表丢弃，不做逐条淘汰。
type resultCache struct {
	mu  sync.RWMutex
	m   map[cacheKey]cacheEntry
	cap int
	ttl time.Duration
	now func() time.Time
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &resultCache{
		m:   make(map[cacheKey]cacheEntry, 64),
		cap: size,
		ttl: ttl,
		now: time.Now,
	}
}

func (c *resultCache) get(k cacheKey) (cacheEntry, bool) {
	c.mu.RLock()
	e, ok := c.m[k]
	c.mu.RUnlock()
	if !ok {
		return cacheEntry{}, false
	}
	if c.now().Sub(e.stored) > c.ttl {
		return cacheEntry{}, false
	}
	return e, true
}

func (c *resultCache) put(k cacheKey, move xiangqi.Move, score, depth int) {
	c.mu.Lock()
	if len(c.m) >= c.cap {
		c.m = make(map[cacheKey]cacheEntry, 64)
	}
	move.Captured = 0
	c.m[k] = cacheEntry{move: move, score: score, depth: depth, stored: c.now()}
	c.mu.Unlock()
}

func (c *resultCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *resultCache) clear() {
	c.mu.Lock()
	c.m = make(map[cacheKey]cacheEntry, 64)
	c.mu.Unlock()
}
