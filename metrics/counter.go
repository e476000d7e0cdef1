package metrics

import (
	"sync/atomic"

	"github.com/krisalay/go-memoize/types"
)

var _ types.Metrics = (*Counter)(nil)

// Counter keeps memoization events in memory. It is handy in tests and CLIs
// that print a summary instead of exporting metrics.
type Counter struct {
	hits, misses, expirations, evictions, coalesced atomic.Int64
}

func (c *Counter) Hit()      { c.hits.Add(1) }
func (c *Counter) Miss()     { c.misses.Add(1) }
func (c *Counter) Expire()   { c.expirations.Add(1) }
func (c *Counter) Evict()    { c.evictions.Add(1) }
func (c *Counter) Coalesce() { c.coalesced.Add(1) }

// Snapshot is a point-in-time copy of a Counter.
type Snapshot struct {
	Hits        int64
	Misses      int64
	Expirations int64
	Evictions   int64
	Coalesced   int64
}

// Snapshot returns the current counts.
func (c *Counter) Snapshot() Snapshot {
	return Snapshot{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Expirations: c.expirations.Load(),
		Evictions:   c.evictions.Load(),
		Coalesced:   c.coalesced.Load(),
	}
}

// HitRate returns hits / (hits + misses), or 0 before any call.
func (s Snapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
