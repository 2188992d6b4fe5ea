package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"calldex/internal/profile/models"
	"calldex/pkg/phone"
)

// lruEntry is one cached value. A nil profile with negative=true is a cached
// "not found" that suppresses repeated durable-store misses.
type lruEntry struct {
	key       phone.Number
	profile   *models.NumberProfile
	negative  bool
	expiresAt time.Time
}

// LRU is the in-process cache tier: a hash map plus a doubly linked list
// giving O(1) get, set, and tail eviction. Each service instance owns its own
// LRU; it is never authoritative.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[phone.Number]*list.Element
	order    *list.List // front = most recently used
}

// NewLRU builds a bounded LRU with a per-entry TTL.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[phone.Number]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached entry and whether it was present and fresh. The
// second bool distinguishes a cached negative from a plain miss.
func (c *LRU) Get(key phone.Number) (*models.NumberProfile, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false, false
	}
	entry := elem.Value.(*lruEntry)
	if time.Now().After(entry.expiresAt) {
		c.removeLocked(elem)
		return nil, false, false
	}
	c.order.MoveToFront(elem)
	return entry.profile, entry.negative, true
}

// Set caches a profile for the key, evicting the tail when over capacity.
func (c *LRU) Set(key phone.Number, profile *models.NumberProfile) {
	c.set(key, profile, false)
}

// SetNegative caches a "not found" for the key.
func (c *LRU) SetNegative(key phone.Number) {
	c.set(key, nil, true)
}

func (c *LRU) set(key phone.Number, profile *models.NumberProfile, negative bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lruEntry)
		entry.profile = profile
		entry.negative = negative
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&lruEntry{
		key:       key,
		profile:   profile,
		negative:  negative,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.items[key] = elem

	for len(c.items) > c.capacity {
		c.removeLocked(c.order.Back())
	}
}

// Delete removes the key if present.
func (c *LRU) Delete(key phone.Number) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeLocked(elem)
	}
}

// Len reports the number of cached entries, expired or not.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sweep reclaims TTL-expired entries from the tail inward. Expired entries
// cluster at the tail because every touch moves an entry to the front.
func (c *LRU) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	swept := 0
	for elem := c.order.Back(); elem != nil; {
		entry := elem.Value.(*lruEntry)
		if !now.After(entry.expiresAt) {
			break
		}
		prev := elem.Prev()
		c.removeLocked(elem)
		elem = prev
		swept++
	}
	return swept
}

// StartSweeper runs Sweep on the interval until ctx is cancelled.
func (c *LRU) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

func (c *LRU) removeLocked(elem *list.Element) {
	entry := elem.Value.(*lruEntry)
	delete(c.items, entry.key)
	c.order.Remove(elem)
}
