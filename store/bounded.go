package store

import (
	"fmt"
	"sync"

	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/eviction"
	"github.com/krisalay/go-memoize/types"
)

var _ api.Cache[int] = (*Bounded[int])(nil)

/*
Bounded is a fixed-capacity cache whose victim is chosen by an eviction.Policy.

When a NEW key arrives and the cache is full, the policy picks one key to
remove first. Overwriting a stored key never evicts anything.

Use NewFIFO or NewLFU; for least-recently-used eviction use LRU.
*/
type Bounded[V any] struct {
	mu       sync.Mutex
	data     map[any]*types.Entry[V]
	policy   eviction.Policy
	capacity int
	onEvict  func(key any, entry *types.Entry[V])
}

// BoundedOption configures a Bounded cache.
type BoundedOption[V any] func(*Bounded[V])

// WithEvictCallback calls fn for every entry removed to make room.
// fn runs with the cache locked and must not call back into it.
func WithEvictCallback[V any](fn func(key any, entry *types.Entry[V])) BoundedOption[V] {
	return func(b *Bounded[V]) {
		b.onEvict = fn
	}
}

// NewBounded creates a cache holding at most capacity entries, evicting with policy.
func NewBounded[V any](capacity int, policy eviction.PolicyType, opts ...BoundedOption[V]) (*Bounded[V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("store: capacity must be positive, got %d", capacity)
	}
	p, err := eviction.New(policy)
	if err != nil {
		return nil, err
	}
	b := &Bounded[V]{
		data:     make(map[any]*types.Entry[V], capacity),
		policy:   p,
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewFIFO creates a Bounded cache that evicts the oldest inserted key.
func NewFIFO[V any](capacity int, opts ...BoundedOption[V]) (*Bounded[V], error) {
	return NewBounded(capacity, eviction.FIFO, opts...)
}

// NewLFU creates a Bounded cache that evicts the least frequently read key.
func NewLFU[V any](capacity int, opts ...BoundedOption[V]) (*Bounded[V], error) {
	return NewBounded(capacity, eviction.LFU, opts...)
}

// BoundedFactory returns an api.Factory creating a new Bounded cache per call.
// It panics on invalid arguments, which are programming errors.
func BoundedFactory[V any](capacity int, policy eviction.PolicyType) api.Factory[V] {
	if _, err := NewBounded[V](capacity, policy); err != nil {
		panic(err)
	}
	return func() api.Cache[V] {
		b, _ := NewBounded[V](capacity, policy)
		return b
	}
}

func (b *Bounded[V]) Set(key any, entry *types.Entry[V]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.data[key]; !exists && len(b.data) >= b.capacity {
		if victim, ok := b.policy.Evict(); ok {
			old := b.data[victim]
			delete(b.data, victim)
			if b.onEvict != nil {
				b.onEvict(victim, old)
			}
		}
	}
	b.data[key] = entry
	b.policy.OnPut(key)
}

func (b *Bounded[V]) Get(key any) (*types.Entry[V], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ent, ok := b.data[key]
	if ok {
		b.policy.OnGet(key)
	}
	return ent, ok
}

// Has reports whether key is stored without counting as a read.
func (b *Bounded[V]) Has(key any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[key]
	return ok
}

func (b *Bounded[V]) Delete(key any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.data[key]; !ok {
		return false
	}
	delete(b.data, key)
	b.policy.Remove(key)
	return true
}

// Len returns how many entries are stored.
func (b *Bounded[V]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}
