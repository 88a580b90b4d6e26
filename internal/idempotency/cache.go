package idempotency

import (
	"container/list"
	"sync"
	"time"

	"github.com/codex-k8s/aha-mcp-server/internal/protocol"
)

// Cache remembers the results of mutating tool calls for a limited time so
// a retried call with the same request id is answered without repeating
// the mutation.
type Cache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type cacheEntry struct {
	key       string
	value     protocol.ToolResult
	expiresAt time.Time
}

// NewCache creates a cache with the given ttl and max entries.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get retrieves a cached result if present and not expired.
func (c *Cache) Get(key string) (protocol.ToolResult, bool) {
	if c == nil || key == "" {
		return protocol.ToolResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return protocol.ToolResult{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, key)
		return protocol.ToolResult{}, false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores a result. Failed results are never cached.
func (c *Cache) Set(key string, value protocol.ToolResult) {
	if c == nil || key == "" || value.Failed() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = c.now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	entry := &cacheEntry{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
	elem := c.order.PushFront(entry)
	c.items[key] = elem
	c.trim()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) trim() {
	for len(c.items) > c.maxEntries {
		elem := c.order.Back()
		if elem == nil {
			return
		}
		entry := elem.Value.(*cacheEntry)
		delete(c.items, entry.key)
		c.order.Remove(elem)
	}
}
