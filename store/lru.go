package store

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/types"
)

var _ api.Cache[int] = (*LRU[int])(nil)

// LRU is a bounded cache that evicts the least recently used key once Size
// entries are stored. Reads through Get count as use; Has does not.
type LRU[V any] struct {
	cache *lru.Cache[any, *types.Entry[V]]
}

// NewLRU creates an LRU holding at most size entries.
func NewLRU[V any](size int) (*LRU[V], error) {
	return NewLRUWithEvict[V](size, nil)
}

// NewLRUWithEvict is like NewLRU and calls onEvict for every entry pushed out for space.
func NewLRUWithEvict[V any](size int, onEvict func(key any, entry *types.Entry[V])) (*LRU[V], error) {
	var (
		c   *lru.Cache[any, *types.Entry[V]]
		err error
	)
	if onEvict != nil {
		c, err = lru.NewWithEvict[any, *types.Entry[V]](size, onEvict)
	} else {
		c, err = lru.New[any, *types.Entry[V]](size)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &LRU[V]{cache: c}, nil
}

// LRUFactory returns an api.Factory creating a new LRU of the given size per call.
// It panics on a non-positive size, which is a programming error.
func LRUFactory[V any](size int) api.Factory[V] {
	if size <= 0 {
		panic(fmt.Sprintf("store: LRU size must be positive, got %d", size))
	}
	return func() api.Cache[V] {
		c, err := NewLRU[V](size)
		if err != nil {
			panic(err)
		}
		return c
	}
}

func (l *LRU[V]) Set(key any, entry *types.Entry[V]) {
	l.cache.Add(key, entry)
}

func (l *LRU[V]) Get(key any) (*types.Entry[V], bool) {
	return l.cache.Get(key)
}

func (l *LRU[V]) Has(key any) bool {
	return l.cache.Contains(key)
}

func (l *LRU[V]) Delete(key any) bool {
	return l.cache.Remove(key)
}

// Len returns how many entries are stored.
func (l *LRU[V]) Len() int {
	return l.cache.Len()
}
