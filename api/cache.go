package api

import "github.com/krisalay/go-memoize/types"

/*
Cache defines the storage contract the memoizer needs.
Anything satisfying it can back a memoized function: the default ordered map,
a bounded LRU, ristretto, or a caller's own type.

Keys are compared with Go equality:
-----------------------------------
- Strings, numbers and bools compare by value
- Pointers compare by identity, never by the value they point to
- Slices, maps and funcs are not valid keys (the engine never stores under them)

Implementations MUST be safe for concurrent use and SHOULD be pointer types,
because the engine uses the cache's identity to track in-flight calls.
*/
type Cache[V any] interface {

	/*
		Set stores an entry under key.
		At most one entry is live per key, so Set overwrites.
	*/
	Set(key any, entry *types.Entry[V])

	// Get returns the entry stored under key.
	Get(key any) (*types.Entry[V], bool)

	// Has reports whether key has an entry.
	Has(key any) bool

	/*
		Delete removes the entry under key.
		It returns false when there was nothing to remove, so it is idempotent.
	*/
	Delete(key any) bool
}

// Factory creates a fresh cache. Memoized functions call it once; decorated
// members call it once per owner.
type Factory[V any] func() Cache[V]
