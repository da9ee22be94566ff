// Package cache provides the bounded LRU index used by the phenotype and
// compatibility caches. Entries are evicted least-recently-used once the
// configured capacity is exceeded; explicit Clear is always available.
package cache

import "container/list"

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a capacity-bounded map with least-recently-used eviction. It is not
// safe for concurrent use; all engines run on the single tick goroutine.
type LRU[K comparable, V any] struct {
	capacity int
	order    *list.List
	items    map[K]*list.Element
}

// New returns an LRU holding at most capacity entries. Capacity must be
// positive.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// Get returns the cached value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put inserts or refreshes a value, evicting the least recently used entry
// when over capacity.
func (c *LRU[K, V]) Put(key K, value V) {
	if el, ok := c.items[key]; ok {
		el.Value = entry[K, V]{key: key, value: value}
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(entry[K, V]{key: key, value: value})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(entry[K, V]).key)
		}
	}
}

// Len returns the number of live entries.
func (c *LRU[K, V]) Len() int {
	return c.order.Len()
}

// Clear drops every entry.
func (c *LRU[K, V]) Clear() {
	c.order.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}
