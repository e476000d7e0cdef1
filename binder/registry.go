// Package binder maps owners to private caches without keeping owners alive.
package binder

import (
	"runtime"
	"sync"
	"weak"

	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/store"
	"github.com/krisalay/go-memoize/types"
)

/*
Registry hands out one cache per owner.

Each decorated member builds its own Registry, so two members never share
storage through it. Owners are held through weak pointers: once an owner is
otherwise unreachable the garbage collector may reclaim it, and a cleanup
removes its cache from the registry.

Caveats:
  - Owner types must not be zero-sized. Every zero-sized allocation can share one
    address, which would merge their caches.
  - A cached value that references its owner keeps the owner (and the cache) alive.
*/
type Registry[O any, V any] struct {
	mu      sync.Mutex
	caches  map[weak.Pointer[O]]api.Cache[V]
	factory api.Factory[V]
}

// New creates a registry. A nil factory creates a fresh store.Map per owner.
func New[O any, V any](factory api.Factory[V]) *Registry[O, V] {
	if factory == nil {
		factory = store.MapFactory[V]
	}
	return &Registry[O, V]{
		caches:  make(map[weak.Pointer[O]]api.Cache[V]),
		factory: factory,
	}
}

// Shared creates a registry that maps every owner to the same cache.
func Shared[O any, V any](cache api.Cache[V]) *Registry[O, V] {
	return New[O, V](func() api.Cache[V] { return cache })
}

// CacheFor returns the cache associated with owner, creating it on first use.
// Repeated calls with the same owner return the identical cache.
func (r *Registry[O, V]) CacheFor(owner *O) (api.Cache[V], error) {
	if owner == nil {
		return nil, types.ErrNilOwner
	}
	wp := weak.Make(owner)

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.caches[wp]; ok {
		return c, nil
	}
	c := r.factory()
	r.caches[wp] = c
	runtime.AddCleanup(owner, r.release, wp)
	return c, nil
}

// release runs after the owner behind wp has been collected.
func (r *Registry[O, V]) release(wp weak.Pointer[O]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.caches, wp)
}

// Len returns how many owners currently have a cache.
func (r *Registry[O, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.caches)
}
