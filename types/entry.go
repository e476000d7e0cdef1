package types

import "time"

// Entry is one memoized result.
// Entries are stored by pointer and never mutated once stored, so a pointer
// comparison tells whether the entry under a key is still the one a call created.
type Entry[V any] struct {
	Value V

	// Timestamp is when the call that produced Value returned.
	// It is only used to decide expiration.
	Timestamp time.Time
}

// NewEntry creates an entry stamped with now.
func NewEntry[V any](value V, now time.Time) *Entry[V] {
	return &Entry[V]{Value: value, Timestamp: now}
}
