package store

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/types"
)

var _ api.Cache[int] = (*Ristretto[int])(nil)

// KeyString maps a cache key onto the string keys ristretto stores.
// It returns false for keys that cannot be represented; those are never cached.
type KeyString func(key any) (string, bool)

// RistrettoConfig configures a Ristretto cache.
type RistrettoConfig struct {
	// NumCounters is the number of keys tracked for admission, ~10x the expected entries.
	NumCounters int64
	// MaxCost bounds the cache; every entry costs 1, so this is the entry budget.
	MaxCost int64
	// BufferItems is ristretto's Get buffer size. 64 is the recommended value.
	BufferItems int64
	// KeyString converts keys. Defaults to ScalarKey.
	KeyString KeyString
}

/*
Ristretto is a bounded, admission-controlled cache backed by dgraph-io/ristretto.

Differences from Map worth knowing:
  - Admission may reject a Set under pressure; the key then stays a miss
    and the next call recomputes.
  - Only keys accepted by KeyString are cached. Pointer keys are rejected by the
    default converter because identity cannot survive conversion to a string.
  - Set waits for ristretto's write buffer so an in-flight future is visible to
    the next call straight away.
*/
type Ristretto[V any] struct {
	cache     *ristretto.Cache[string, *types.Entry[V]]
	keyString KeyString
}

// NewRistretto creates a Ristretto cache. Zero fields in cfg take defaults sized for ~1000 entries.
func NewRistretto[V any](cfg RistrettoConfig) (*Ristretto[V], error) {
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 1000
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = cfg.MaxCost * 10
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = 64
	}
	if cfg.KeyString == nil {
		cfg.KeyString = ScalarKey
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *types.Entry[V]]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	return &Ristretto[V]{cache: c, keyString: cfg.KeyString}, nil
}

func (r *Ristretto[V]) Set(key any, entry *types.Entry[V]) {
	k, ok := r.keyString(key)
	if !ok {
		return
	}
	if r.cache.Set(k, entry, 1) {
		r.cache.Wait()
	}
}

func (r *Ristretto[V]) Get(key any) (*types.Entry[V], bool) {
	k, ok := r.keyString(key)
	if !ok {
		return nil, false
	}
	return r.cache.Get(k)
}

func (r *Ristretto[V]) Has(key any) bool {
	_, ok := r.Get(key)
	return ok
}

func (r *Ristretto[V]) Delete(key any) bool {
	k, ok := r.keyString(key)
	if !ok {
		return false
	}
	if _, found := r.cache.Get(k); !found {
		return false
	}
	r.cache.Del(k)
	return true
}

// Close stops ristretto's background goroutines.
func (r *Ristretto[V]) Close() {
	r.cache.Close()
}

// ScalarKey converts nil, strings, bools and numbers into strings tagged with
// their Go type, so "1", int(1) and int64(1) stay distinct keys as they are in a map.
// Everything else is rejected.
func ScalarKey(key any) (string, bool) {
	switch key.(type) {
	case nil:
		return "<nil>", true
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return fmt.Sprintf("%T:%v", key, key), true
	default:
		return "", false
	}
}
