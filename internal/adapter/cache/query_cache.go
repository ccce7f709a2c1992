package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"medcite/internal/domain"
	"medcite/internal/port"
)

// QueryCache is a size-bounded LRU of retrieval results with a TTL.
type QueryCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*list.Element
	order   *list.List // front is most recently used
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheKey struct {
	question string
	k        int
}

type cacheEntry struct {
	key     cacheKey
	results []domain.ScoredChunk
	stored  time.Time
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[cacheKey]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached results for (question, k).
// Expired entries are dropped on access.
func (c *QueryCache) Get(question string, k int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{question: normalize(question), k: k}
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.stored) > c.ttl {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return cloneResults(entry.results), true
}

func (c *QueryCache) Put(question string, k int, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{question: normalize(question), k: k}
	entry := &cacheEntry{key: key, results: cloneResults(results), stored: c.now()}

	if elem, ok := c.entries[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	c.entries[key] = c.order.PushFront(entry)
}

// Invalidate drops every entry. Call it after the index is rebuilt.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]*list.Element)
	c.order.Init()
}

func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func normalize(question string) string {
	return strings.Join(strings.Fields(question), " ")
}

func cloneResults(results []domain.ScoredChunk) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(results))
	copy(out, results)
	return out
}

// CachedRetriever serves repeated questions from a QueryCache.
// Questions reach the wrapped retriever normalized, so every question sharing
// a cache key is embedded identically. Errors are never cached.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Retrieve(question string, k int) ([]domain.ScoredChunk, error) {
	question = normalize(question)
	if results, hit := r.cache.Get(question, k); hit {
		return results, nil
	}

	results, err := r.retriever.Retrieve(question, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(question, k, results)
	return results, nil
}
