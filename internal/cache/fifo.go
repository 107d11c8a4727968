package cache

import "sync"

// FIFO is a bounded map that evicts the oldest inserted key once it grows
// past its capacity. Reads do not refresh an entry's position, and
// overwriting an existing key keeps its original slot.
type FIFO[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]V
	order    []K
}

func NewFIFO[K comparable, V any](capacity int) *FIFO[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &FIFO[K, V]{
		capacity: capacity,
		items:    make(map[K]V, capacity),
		order:    make([]K, 0, capacity),
	}
}

func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *FIFO[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Set stores value under key and evicts the oldest key when the cache is
// over capacity.
func (c *FIFO[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		c.items[key] = value
		return
	}

	c.items[key] = value
	c.order = append(c.order, key)

	for len(c.order) > c.capacity {
		oldest := c.order[0]
		var zero K
		c.order[0] = zero
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

// GetOrSet returns the cached value for key, computing and storing it with
// fn on a miss.
func (c *FIFO[K, V]) GetOrSet(key K, fn func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := fn()
	c.Set(key, v)
	return v
}

func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
