package engine

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/expiration"
	"github.com/krisalay/go-memoize/logger"
	"github.com/krisalay/go-memoize/types"
)

// Func is the shape every memoized callable is reduced to.
// self is the receiver (nil for plain functions).
type Func[A, R any] func(self any, args []A) (R, error)

// KeyFunc derives a cache key from the call arguments.
type KeyFunc func(args ...any) (any, error)

// CacheResolver returns the cache a call must use, given its receiver.
type CacheResolver[R any] func(self any) (api.Cache[R], error)

/*
Config holds the rules of one memoized callable. It is captured when the
function is wrapped and never changes afterwards.
*/
type Config[R any] struct {

	// Resolve picks the cache for each call. Required.
	Resolve CacheResolver[R]

	// Expiration decides when an entry is too old. nil means entries never expire.
	Expiration expiration.Strategy

	// KeyFunc derives the key. nil means "first argument, or nil when there is none".
	KeyFunc KeyFunc

	// CacheRejected keeps failed asynchronous results in the cache.
	CacheRejected bool

	// Metrics receives hit/miss/expire/evict/coalesce events. nil means NoopMetrics.
	Metrics types.Metrics

	// Logger receives debug records about expirations, evictions and joins. nil discards.
	Logger logger.Logger

	// Clock stamps entries and checks expiration. nil means the wall clock.
	Clock clock.Clock
}

/*
Engine is the "brain" of a memoized function.

It decides:
- Which cache a call uses
- Which key a call maps to
- Whether a stored entry is still fresh
- When a failed asynchronous result must leave the cache

It does NOT:
- Store data (the api.Cache does)
- Interpret the wrapped function's result, except to notice Deferred ones
*/
type Engine[A, R any] struct {
	fn  Func[A, R]
	cfg Config[R]

	// mu serializes lookup and store so two calls can't both miss the same key.
	mu sync.Mutex

	// flights tracks computations that are running right now.
	flights map[flightKey]*flight[R]
}

type flightKey struct {
	cache any
	key   any
}

type flight[R any] struct {
	done  chan struct{}
	value R
	err   error
}

// New creates an engine for fn.
func New[A, R any](fn Func[A, R], cfg Config[R]) *Engine[A, R] {
	if cfg.Resolve == nil {
		panic("engine: Config.Resolve is required")
	}
	if cfg.Expiration == nil {
		cfg.Expiration = expiration.Never{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = types.NoopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Engine[A, R]{
		fn:      fn,
		cfg:     cfg,
		flights: make(map[flightKey]*flight[R]),
	}
}

/*
Call runs one memoized invocation.

 1. Resolve the cache for self
 2. Derive the key
 3. Return a fresh stored entry as-is (same future for async results)
 4. Otherwise join a running computation for the same key, or run fn
 5. Watch Deferred results for failure, then store the result

A non-nil error from fn is returned unchanged and nothing is stored.
A key that is not comparable skips the cache: fn runs on every such call.
*/
func (e *Engine[A, R]) Call(self any, args []A) (R, error) {
	var zero R

	cache, err := e.cfg.Resolve(self)
	if err != nil {
		return zero, err
	}
	key, cacheable, err := e.key(args)
	if err != nil {
		return zero, err
	}
	if !cacheable {
		e.cfg.Metrics.Miss()
		e.cfg.Logger.Debug("key is not comparable, calling uncached", "type", fmt.Sprintf("%T", key))
		return e.fn(self, args)
	}

	e.mu.Lock()
	if ent, ok := cache.Get(key); ok {
		if !e.cfg.Expiration.IsExpired(ent.Timestamp, e.cfg.Clock.Now()) {
			e.mu.Unlock()
			e.cfg.Metrics.Hit()
			return ent.Value, nil
		}
		e.cfg.Metrics.Expire()
		e.cfg.Logger.Debug("memoized entry expired", "key", key)
	}

	fk, tracked := flightKeyFor(cache, key)
	if tracked {
		if f, ok := e.flights[fk]; ok {
			e.mu.Unlock()
			e.cfg.Metrics.Coalesce()
			e.cfg.Logger.Debug("joining in-flight computation", "key", key)
			<-f.done
			return f.value, f.err
		}
	}
	f := &flight[R]{done: make(chan struct{})}
	if tracked {
		e.flights[fk] = f
	}
	e.mu.Unlock()

	e.cfg.Metrics.Miss()
	return e.compute(self, args, cache, key, fk, tracked, f)
}

func (e *Engine[A, R]) compute(
	self any,
	args []A,
	cache api.Cache[R],
	key any,
	fk flightKey,
	tracked bool,
	f *flight[R],
) (R, error) {
	completed := false
	defer func() {
		if completed {
			return
		}
		r := recover()
		if r == nil {
			// runtime.Goexit: finish the flight and let the goroutine keep unwinding.
			f.err = fmt.Errorf("%w: goroutine exited", types.ErrComputationPanicked)
			e.land(fk, tracked, f)
			return
		}
		f.err = fmt.Errorf("%w: %v", types.ErrComputationPanicked, r)
		e.land(fk, tracked, f)
		panic(r)
	}()

	value, err := e.fn(self, args)
	completed = true

	f.value, f.err = value, err
	if err != nil {
		e.land(fk, tracked, f)
		return value, err
	}

	ent := types.NewEntry(value, e.cfg.Clock.Now())

	// The hook is attached before the entry is visible, so a failure can never
	// be served from the cache. A failure that lands before Set is caught by
	// the rejected check below.
	var rejected atomic.Bool
	if d, ok := any(value).(types.Deferred); ok && !e.cfg.CacheRejected {
		d.OnSettled(func(err error) {
			if err != nil {
				rejected.Store(true)
				e.evict(cache, key, ent, err)
			}
		})
	}

	e.mu.Lock()
	cache.Set(key, ent)
	if rejected.Load() {
		cache.Delete(key)
		e.cfg.Metrics.Evict()
		e.cfg.Logger.Debug("evicted rejected result", "key", key)
	}
	if tracked {
		delete(e.flights, fk)
	}
	e.mu.Unlock()
	close(f.done)
	return value, nil
}

// land finishes a flight that produced nothing to store.
func (e *Engine[A, R]) land(fk flightKey, tracked bool, f *flight[R]) {
	if tracked {
		e.mu.Lock()
		delete(e.flights, fk)
		e.mu.Unlock()
	}
	close(f.done)
}

// evict removes a failed asynchronous result, unless a newer call has already replaced it.
func (e *Engine[A, R]) evict(cache api.Cache[R], key any, ent *types.Entry[R], cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur, ok := cache.Get(key)
	if !ok || cur != ent {
		return
	}
	cache.Delete(key)
	e.cfg.Metrics.Evict()
	e.cfg.Logger.Debug("evicted rejected result", "key", key, "error", cause)
}

// key derives the cache key. cacheable is false when the key can't be used as a
// map key (slices, maps, funcs); such calls run uncached.
func (e *Engine[A, R]) key(args []A) (key any, cacheable bool, err error) {
	if e.cfg.KeyFunc != nil {
		boxed := make([]any, len(args))
		for i, a := range args {
			boxed[i] = a
		}
		k, err := e.cfg.KeyFunc(boxed...)
		if err != nil {
			return nil, false, fmt.Errorf("derive cache key: %w", err)
		}
		key = k
	} else if len(args) > 0 {
		key = args[0]
	}
	return key, isComparable(key), nil
}

// flightKeyFor returns false when the cache itself can't be used as a map key.
// Such calls still work, they just aren't deduplicated while running.
func flightKeyFor(cache any, key any) (flightKey, bool) {
	if !isComparable(cache) {
		return flightKey{}, false
	}
	return flightKey{cache: cache, key: key}, true
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}
