// ABOUTME: TTL cache for deduplicating redelivered Telegram updates.
// ABOUTME: Long polling can replay updates after a restart; seen ids are dropped.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// entry stores the timestamp and list element for a cached update id.
type entry struct {
	timestamp time.Time
	element   *list.Element
}

// Cache tracks recently seen Telegram update ids so an update redelivered
// by the long-poll loop (for example after a process restart before the
// offset was acknowledged) is processed only once. Entries expire after a
// TTL; when the cache is full the oldest entry is evicted.
type Cache struct {
	mu      sync.Mutex
	seen    map[int]*entry
	order   *list.List // update ids in insertion order, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a dedupe cache with the given TTL and maximum size.
// A background goroutine periodically removes expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		seen:    make(map[int]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Seen atomically checks whether updateID was already processed and marks
// it if not. Returns true for a duplicate, false for a fresh update.
func (c *Cache) Seen(updateID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.seen[updateID]; ok && time.Since(e.timestamp) < c.ttl {
		return true
	}

	c.markLocked(updateID)
	return false
}

// markLocked records updateID. Must be called with mu held.
func (c *Cache) markLocked(updateID int) {
	now := time.Now()

	if e, exists := c.seen[updateID]; exists {
		e.timestamp = now
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(updateID)
	c.seen[updateID] = &entry{
		timestamp: now,
		element:   elem,
	}
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	id, _ := front.Value.(int)
	c.order.Remove(front)
	delete(c.seen, id)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries from the cache.
func (c *Cache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, e := range c.seen {
		if now.Sub(e.timestamp) > c.ttl {
			c.order.Remove(e.element)
			delete(c.seen, id)
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
