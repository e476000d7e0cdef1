package store

import (
	"fmt"
	"hash/maphash"

	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/types"
)

var _ api.Cache[int] = (*Sharded[int])(nil)

/*
Sharded splits one logical cache into independent shards, each with its own
lock, so callers working on different keys rarely contend.

A key always maps to the same shard. Bounded shards apply their capacity per
shard, so a Sharded cache of n LRU(c) shards holds at most n*c entries and
evicts within a shard, not globally.
*/
type Sharded[V any] struct {
	shards []api.Cache[V]
	seed   maphash.Seed
}

// NewSharded creates n shards with factory. A nil factory uses MapFactory.
func NewSharded[V any](n int, factory api.Factory[V]) (*Sharded[V], error) {
	if n <= 0 {
		return nil, fmt.Errorf("store: shard count must be positive, got %d", n)
	}
	if factory == nil {
		factory = MapFactory[V]
	}
	s := &Sharded[V]{
		shards: make([]api.Cache[V], n),
		seed:   maphash.MakeSeed(),
	}
	for i := range s.shards {
		s.shards[i] = factory()
	}
	return s, nil
}

// shardFor hashes key by value. key must be comparable; memoized functions
// never pass other keys to the cache.
func (s *Sharded[V]) shardFor(key any) api.Cache[V] {
	if len(s.shards) == 1 {
		return s.shards[0]
	}
	h := maphash.Comparable(s.seed, key)
	return s.shards[h%uint64(len(s.shards))]
}

func (s *Sharded[V]) Set(key any, entry *types.Entry[V]) {
	s.shardFor(key).Set(key, entry)
}

func (s *Sharded[V]) Get(key any) (*types.Entry[V], bool) {
	return s.shardFor(key).Get(key)
}

func (s *Sharded[V]) Has(key any) bool {
	return s.shardFor(key).Has(key)
}

func (s *Sharded[V]) Delete(key any) bool {
	return s.shardFor(key).Delete(key)
}

// Len sums the shard sizes. Shards that cannot report a size count as empty.
func (s *Sharded[V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		if l, ok := sh.(interface{ Len() int }); ok {
			total += l.Len()
		}
	}
	return total
}

// Shards returns the number of shards.
func (s *Sharded[V]) Shards() int {
	return len(s.shards)
}
