package types

// This file defines how the memoizer reports what it is doing.

/*
Metrics is an interface that defines what the memoizer wants to measure.
Each method represents an event in the life of a memoized call. The engine will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when a call is answered from the cache.
	Hit()

	// Miss is called when the key is absent and the wrapped function has to run.
	Miss()

	// Expire is called when a cached entry was found but its max age had passed.
	Expire()

	// Evict is called when a failed asynchronous result is removed from the cache.
	Evict()

	// Coalesce is called when a call joins a computation already running for the same key.
	Coalesce()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

We don't want to force every caller to wire metrics,
and we don't want "if metrics != nil" checks on the hot path.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Expire()   {}
func (NoopMetrics) Evict()    {}
func (NoopMetrics) Coalesce() {}
