package store

import (
	"sync"

	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/types"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var _ api.Cache[int] = (*Map[int])(nil)

/*
Map is the default cache: an unbounded, insertion-ordered map.

Entries live until they are overwritten or deleted. Nothing is evicted for
size, which is what a memoized function gets when no cache is configured.
Iteration (Keys) follows insertion order, and overwriting a key keeps its
original position.
*/
type Map[V any] struct {
	mu   sync.RWMutex
	data *orderedmap.OrderedMap[any, *types.Entry[V]]
}

// NewMap creates an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{data: orderedmap.New[any, *types.Entry[V]]()}
}

// MapFactory is an api.Factory producing a fresh Map on every call.
func MapFactory[V any]() api.Cache[V] {
	return NewMap[V]()
}

func (m *Map[V]) Set(key any, entry *types.Entry[V]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Set(key, entry)
}

func (m *Map[V]) Get(key any) (*types.Entry[V], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Get(key)
}

func (m *Map[V]) Has(key any) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *Map[V]) Delete(key any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data.Delete(key)
	return ok
}

// Len returns how many entries are stored.
func (m *Map[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Len()
}

// Keys returns the stored keys, oldest first.
func (m *Map[V]) Keys() []any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]any, 0, m.data.Len())
	for pair := m.data.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Clear removes every entry.
func (m *Map[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = orderedmap.New[any, *types.Entry[V]]()
}
