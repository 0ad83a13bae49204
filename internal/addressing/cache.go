package addressing

import (
	"container/list"
	"strings"
	"sync"

	"github.com/Blakeem/mdstore/internal/metrics"
)

// DefaultCapacity bounds the address cache when no capacity is configured.
// Addresses are tiny, so the default is sized for a busy agent session
// touching a few hundred distinct sections.
const DefaultCapacity = 500

// Cache is a bounded LRU of resolved addresses. Access order is real: a hit
// moves the entry to most-recently-used, so sustained load evicts what was
// least recently *used*, not least recently inserted. The check-evict-insert
// sequence is atomic under one mutex; no reader ever observes size above
// capacity.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // most recently used at the front
	entries  map[string]*list.Element
	met      *metrics.Metrics
}

type cacheEntry struct {
	key  string
	addr Address
}

// NewCache creates an address cache. capacity <= 0 selects DefaultCapacity.
func NewCache(capacity int, met *metrics.Metrics) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		met:      met,
	}
}

// Get returns the cached address for key. A hit touches the entry.
func (c *Cache) Get(key string) (Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		c.met.CacheMisses.WithLabelValues(metrics.CacheAddresses).Inc()
		return Address{}, false
	}
	c.met.CacheHits.WithLabelValues(metrics.CacheAddresses).Inc()
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).addr, true
}

// Put inserts or refreshes an entry, evicting the least recently used one
// first when a new key would push the cache past capacity.
func (c *Cache) Put(key string, addr Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).addr = addr
		c.order.MoveToFront(el)
		return
	}
	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, addr: addr})
}

// evictOldest removes the least recently used entry. Eviction on an empty
// cache is a no-op, never an error.
func (c *Cache) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.order.Remove(back)
	c.met.CacheEvictions.WithLabelValues(metrics.CacheAddresses).Inc()
}

// InvalidateDocument removes every entry resolved against docPath, directly
// or through an ancestor directory. Wired to the document cache's change
// notifications; returns how many entries were dropped.
func (c *Cache) InvalidateDocument(docPath string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed int
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		entry := el.Value.(*cacheEntry)
		if entry.addr.DocumentPath == docPath || strings.HasPrefix(entry.addr.DocumentPath, strings.TrimSuffix(docPath, ".md")+"/") {
			delete(c.entries, entry.key)
			c.order.Remove(el)
			removed++
		}
		el = next
	}
	if removed > 0 {
		c.met.CacheInvalidations.WithLabelValues(metrics.CacheAddresses).Inc()
	}
	return removed
}

// Len returns the number of cached addresses.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
