package pathcodec

import (
	"iter"
	"slices"

	"github.com/eapache/queue"
)

// MultiMap maps a key to zero or more values. Values under one key keep insertion
// order and are popped most-recent first.
//
// Every key owns a sequence node, even when it holds a single value. Nodes of keys
// that drop to zero values are parked on a free list and handed to the next new key,
// so a key's storage is not reallocated when it empties and fills again.
//
// Order across keys follows Go map iteration and must not be relied on.
// MultiMap is not safe for concurrent use.
type MultiMap[K comparable, V comparable] struct {
	nodes    map[K]*[]V
	free     *queue.Queue
	count    int
	baseline int
}

// NewMultiMap creates a map sized for capacity distinct keys.
func NewMultiMap[K comparable, V comparable](capacity int) *MultiMap[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &MultiMap[K, V]{
		nodes:    make(map[K]*[]V, capacity),
		free:     queue.New(),
		baseline: capacity,
	}
}

// Add appends v under k.
func (m *MultiMap[K, V]) Add(k K, v V) {
	node, ok := m.nodes[k]
	if !ok {
		node = m.node()
		m.nodes[k] = node
	}
	*node = append(*node, v)
	m.count++
}

// TryPopLast removes and returns the most recently added value under k.
func (m *MultiMap[K, V]) TryPopLast(k K) (V, bool) {
	node, ok := m.nodes[k]
	if !ok {
		var zero V
		return zero, false
	}
	last := len(*node) - 1
	v := (*node)[last]
	var zero V
	(*node)[last] = zero
	*node = (*node)[:last]
	m.count--
	if last == 0 {
		m.retire(k, node)
	}
	return v, true
}

// TryGetLast returns the most recently added value under k without removing it.
func (m *MultiMap[K, V]) TryGetLast(k K) (V, bool) {
	if node, ok := m.nodes[k]; ok {
		return (*node)[len(*node)-1], true
	}
	var zero V
	return zero, false
}

// Remove deletes the most recent occurrence of v under k.
func (m *MultiMap[K, V]) Remove(k K, v V) bool {
	node, ok := m.nodes[k]
	if !ok {
		return false
	}
	i := lastIndex(*node, v)
	if i < 0 {
		return false
	}
	*node = slices.Delete(*node, i, i+1)
	m.count--
	if len(*node) == 0 {
		m.retire(k, node)
	}
	return true
}

// RemoveKey deletes every value under k.
func (m *MultiMap[K, V]) RemoveKey(k K) bool {
	node, ok := m.nodes[k]
	if !ok {
		return false
	}
	m.count -= len(*node)
	m.retire(k, node)
	return true
}

// ContainsKey reports whether k holds at least one value.
func (m *MultiMap[K, V]) ContainsKey(k K) bool {
	_, ok := m.nodes[k]
	return ok
}

// Contains reports whether v is stored under k.
func (m *MultiMap[K, V]) Contains(k K, v V) bool {
	node, ok := m.nodes[k]
	return ok && lastIndex(*node, v) >= 0
}

// ContainsValue reports whether v is stored under any key. It scans every value.
func (m *MultiMap[K, V]) ContainsValue(v V) bool {
	for _, node := range m.nodes {
		if lastIndex(*node, v) >= 0 {
			return true
		}
	}
	return false
}

// Len returns the total number of values.
func (m *MultiMap[K, V]) Len() int { return m.count }

// KeyLen returns the number of values under k.
func (m *MultiMap[K, V]) KeyLen(k K) int {
	if node, ok := m.nodes[k]; ok {
		return len(*node)
	}
	return 0
}

// Keys iterates over keys holding at least one value.
func (m *MultiMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.nodes {
			if !yield(k) {
				return
			}
		}
	}
}

// All iterates over every key/value pair; values of one key come in insertion order.
// The map must not be modified during iteration.
func (m *MultiMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k, node := range m.nodes {
			for _, v := range *node {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Values iterates over every stored value.
func (m *MultiMap[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Clear removes every value. Nodes move to the free list and the map keeps its buckets.
func (m *MultiMap[K, V]) Clear() {
	for k, node := range m.nodes {
		m.retire(k, node)
	}
	m.count = 0
}

// Release removes every value and drops all storage, including the free list,
// restarting at the capacity the map was created with.
func (m *MultiMap[K, V]) Release() {
	m.nodes = make(map[K]*[]V, m.baseline)
	m.free = queue.New()
	m.count = 0
}

// FreeNodes returns the number of parked sequence nodes.
func (m *MultiMap[K, V]) FreeNodes() int { return m.free.Length() }

func (m *MultiMap[K, V]) node() *[]V {
	if m.free.Length() > 0 {
		return m.free.Remove().(*[]V)
	}
	s := make([]V, 0, 1)
	return &s
}

func (m *MultiMap[K, V]) retire(k K, node *[]V) {
	delete(m.nodes, k)
	clear((*node)[:cap(*node)])
	*node = (*node)[:0]
	m.free.Add(node)
}

func lastIndex[V comparable](s []V, v V) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == v {
			return i
		}
	}
	return -1
}
