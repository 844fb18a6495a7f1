package plan

import (
	"container/list"
	"sync"
)

// responseCache is a bounded LRU over finished planning responses.
// Entries are immutable once stored; hits hand back the stored response
// as-is, so a repeated request observes the identical outcome, original
// request id included.
//
// Thread safety: all operations hold the mutex; the cache is the only
// mutable cross-request state in the assembler besides the stats
// recorder.
type responseCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recent
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key      string
	response *SequencingResponse
}

func newResponseCache(capacity int) *responseCache {
	return &responseCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

func (c *responseCache) get(key string) (*SequencingResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).response, true
}

func (c *responseCache) put(key string, resp *SequencingResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).response = resp
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, response: resp})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
