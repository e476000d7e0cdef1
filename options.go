package memoize

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/engine"
	"github.com/krisalay/go-memoize/expiration"
	"github.com/krisalay/go-memoize/logger"
	"github.com/krisalay/go-memoize/types"
)

// Option configures a memoized function or member using the functional options pattern.
// R is the result type of the wrapped function.
type Option[R any] func(*options[R])

// KeyFunc derives a cache key from the call arguments.
// A key that is not comparable (slices, maps, funcs) disables caching for that call.
type KeyFunc = engine.KeyFunc

// options holds everything captured at wrap time.
type options[R any] struct {
	expiration       expiration.Strategy
	cache            api.Cache[R]
	factory          api.Factory[R]
	keyFunc          KeyFunc
	cacheRejected    bool
	cacheFromContext func(owner any) api.Cache[R]
	metrics          types.Metrics
	logger           logger.Logger
	clock            clock.Clock
	name             string
}

func applyOptions[R any](opts ...Option[R]) *options[R] {
	o := &options[R]{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithMaxAge expires cached results once more than d has passed since they were stored.
// A zero d recomputes on every call.
func WithMaxAge[R any](d time.Duration) Option[R] {
	return func(o *options[R]) {
		o.expiration = expiration.MaxAge{Age: d}
	}
}

// WithMaxAgeMillis is WithMaxAge in milliseconds. NaN and infinities mean "never expires".
func WithMaxAgeMillis[R any](ms float64) Option[R] {
	return func(o *options[R]) {
		o.expiration = expiration.FromMillis(ms)
	}
}

// WithExpiration installs a custom expiration strategy.
func WithExpiration[R any](s expiration.Strategy) Option[R] {
	return func(o *options[R]) {
		o.expiration = s
	}
}

// WithCache uses cache as the storage. Decorated members share it across every owner.
// A nil cache is ignored.
func WithCache[R any](cache api.Cache[R]) Option[R] {
	return func(o *options[R]) {
		if cache != nil {
			o.cache = cache
			o.factory = nil
		}
	}
}

// WithCacheFactory creates the storage with factory: once for a memoized function,
// once per owner for a decorated member. A nil factory is ignored.
func WithCacheFactory[R any](factory api.Factory[R]) Option[R] {
	return func(o *options[R]) {
		if factory != nil {
			o.factory = factory
			o.cache = nil
		}
	}
}

// WithKeyFunc derives keys with fn instead of using the first argument.
func WithKeyFunc[R any](fn KeyFunc) Option[R] {
	return func(o *options[R]) {
		o.keyFunc = fn
	}
}

// WithCacheRejected keeps failed asynchronous results cached, so later calls
// with the same key replay the same failure until it expires.
func WithCacheRejected[R any]() Option[R] {
	return WithCacheRejectedResult[R](true)
}

// WithCacheRejectedResult sets whether failed asynchronous results stay cached.
func WithCacheRejectedResult[R any](keep bool) Option[R] {
	return func(o *options[R]) {
		o.cacheRejected = keep
	}
}

// WithCacheFromContext resolves the cache on every call from the call's owner
// (nil for plain functions). It takes precedence over WithCache, WithCacheFactory
// and the per-owner caches of decorated members.
func WithCacheFromContext[R any](fn func(owner any) api.Cache[R]) Option[R] {
	return func(o *options[R]) {
		o.cacheFromContext = fn
	}
}

// WithMetrics reports cache events to m.
func WithMetrics[R any](m types.Metrics) Option[R] {
	return func(o *options[R]) {
		o.metrics = m
	}
}

// WithLogger sends debug records about expirations, evictions and joins to l.
func WithLogger[R any](l logger.Logger) Option[R] {
	return func(o *options[R]) {
		o.logger = l
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock[R any](c clock.Clock) Option[R] {
	return func(o *options[R]) {
		o.clock = c
	}
}

// WithName overrides the name reported by Name.
func WithName[R any](name string) Option[R] {
	return func(o *options[R]) {
		o.name = name
	}
}

// engineConfig turns the options into an engine config using resolve as the
// default cache resolver.
func (o *options[R]) engineConfig(name string, resolve engine.CacheResolver[R]) engine.Config[R] {
	if o.cacheFromContext != nil {
		fromContext := o.cacheFromContext
		resolve = func(owner any) (api.Cache[R], error) {
			c := fromContext(owner)
			if c == nil {
				return nil, types.ErrNilCache
			}
			return c, nil
		}
	}
	log := o.logger
	if log != nil {
		log = logger.With(log, "function", name)
	}
	return engine.Config[R]{
		Resolve:       resolve,
		Expiration:    o.expiration,
		KeyFunc:       o.keyFunc,
		CacheRejected: o.cacheRejected,
		Metrics:       o.metrics,
		Logger:        log,
		Clock:         o.clock,
	}
}
