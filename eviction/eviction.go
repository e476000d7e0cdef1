package eviction

import "fmt"

/*
This file defines how a bounded cache decides what to remove when it is full.
*/

/*
Policy is the interface that all eviction strategies must follow.

The cache does NOT care how eviction works internally. It reports reads,
writes and removals, and asks for a victim when it runs out of space.
Keys are whatever the memoized function was keyed by, so they are only
required to be comparable.

Policies are not safe for concurrent use; the owning cache serializes calls.
*/
type Policy interface {

	// OnGet is called whenever a key is read from the cache.
	// FIFO ignores it, LFU counts it.
	OnGet(key any)

	// OnPut is called whenever a key is written. Writing an already tracked
	// key does not reset its position or frequency.
	OnPut(key any)

	// Remove is called when a key is removed explicitly (not evicted).
	Remove(key any)

	// Evict picks the key to remove and stops tracking it.
	// It returns false when nothing is tracked.
	Evict() (any, bool)

	// Len returns how many keys are tracked.
	Len() int
}

// PolicyType is a simple identifier for supported eviction strategies.
type PolicyType string

const (
	// LFU (Least Frequently Used): Evicts the key read the fewest times.
	// Among keys with the same count, the oldest one goes first.
	LFU PolicyType = "LFU"

	// FIFO (First In First Out): Evicts the oldest inserted key, regardless of access.
	FIFO PolicyType = "FIFO"
)

// New creates the policy for t.
func New(t PolicyType) (Policy, error) {
	switch t {
	case LFU:
		return newLFU(), nil
	case FIFO:
		return newFIFO(), nil
	default:
		return nil, fmt.Errorf("eviction: unknown policy %q", t)
	}
}
