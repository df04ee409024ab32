package engine

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SearchCache holds recent search responses for one Engine. Entries expire
// after the TTL and the whole cache is purged on every write. A nil
// *SearchCache is valid and caches nothing.
//
// Every Purge starts a new generation. A response computed from rows read in
// an earlier generation is never stored, so a search racing a write cannot
// put pre-write results back after the write cleared them.
type SearchCache struct {
	lru *expirable.LRU[string, SearchResponse]

	mu  sync.Mutex
	gen uint64
}

// NewSearchCache creates a cache of at most size entries. It returns nil
// (caching disabled) when size is not positive.
func NewSearchCache(size int, ttl time.Duration) *SearchCache {
	if size <= 0 {
		return nil
	}
	return &SearchCache{lru: expirable.NewLRU[string, SearchResponse](size, nil, ttl)}
}

// get returns a copy of the cached response, so callers may modify it.
func (c *SearchCache) get(key string) (SearchResponse, bool) {
	if c == nil {
		return SearchResponse{}, false
	}
	resp, ok := c.lru.Get(key)
	if !ok {
		searchCacheLookups.WithLabelValues("miss").Inc()
		return SearchResponse{}, false
	}
	searchCacheLookups.WithLabelValues("hit").Inc()
	return resp.clone(), true
}

// generation returns the current generation. Read it before querying the
// store and hand it to add with the result.
func (c *SearchCache) generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// add stores a copy of resp unless a Purge happened since gen was read.
func (c *SearchCache) add(key string, resp SearchResponse, gen uint64) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.lru.Add(key, resp.clone())
	return true
}

// Purge drops every cached response and starts a new generation.
func (c *SearchCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Purge()
}

// Len reports the number of cached responses.
func (c *SearchCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func (r SearchResponse) clone() SearchResponse {
	return SearchResponse{
		Decisions:     slices.Clone(r.Decisions),
		PackedContent: slices.Clone(r.PackedContent),
	}
}

func searchCacheKey(query string, opts SearchOpts) string {
	return fmt.Sprintf("%q|%d|%q|%t|%q", query, opts.limit(), opts.SessionID,
		opts.IncludeSuperseded, strings.Join(opts.Extra, "\x00"))
}
