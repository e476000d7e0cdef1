package memoize

import (
	"fmt"

	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/binder"
	"github.com/krisalay/go-memoize/engine"
)

/*
Method is a memoized method: a function whose first parameter is the owner.

Every owner gets its own cache, created on its first call and released once the
owner is garbage collected. Two Methods never share storage unless they are
given the same cache with WithCache.

Cache selection per owner:
  - default            : a fresh ordered map per owner
  - WithCacheFactory   : factory() per owner
  - WithCache          : the same instance for every owner
  - WithCacheFromContext : whatever the function returns for the owner
*/
type Method[O, A, R any] struct {
	name     string
	engine   *engine.Engine[A, R]
	registry *binder.Registry[O, R]
	getter   bool
}

// NewMethod memoizes fn per owner.
func NewMethod[O, A, R any](fn func(owner *O, args ...A) (R, error), opts ...Option[R]) *Method[O, A, R] {
	return newMethod(funcName(fn), fn, false, opts...)
}

func newMethod[O, A, R any](
	defaultName string,
	fn func(owner *O, args ...A) (R, error),
	getter bool,
	opts ...Option[R],
) *Method[O, A, R] {
	o := applyOptions(opts...)
	name := o.name
	if name == "" {
		name = defaultName
	}

	var registry *binder.Registry[O, R]
	if o.cache != nil {
		registry = binder.Shared[O](o.cache)
	} else {
		registry = binder.New[O](o.factory)
	}
	resolve := func(self any) (api.Cache[R], error) {
		owner, _ := self.(*O)
		return registry.CacheFor(owner)
	}

	call := func(self any, args []A) (R, error) {
		return fn(self.(*O), args...)
	}
	return &Method[O, A, R]{
		name:     name,
		engine:   engine.New[A, R](call, o.engineConfig(name, resolve)),
		registry: registry,
		getter:   getter,
	}
}

// Call invokes the memoized method on owner. A nil owner fails with ErrNilOwner
// unless a cache-from-context function is configured.
func (m *Method[O, A, R]) Call(owner *O, args ...A) (R, error) {
	if m.getter {
		args = nil
	}
	return m.engine.Call(owner, args)
}

// Bind returns the method bound to owner, with the original argument list.
func (m *Method[O, A, R]) Bind(owner *O) func(args ...A) (R, error) {
	return func(args ...A) (R, error) {
		return m.Call(owner, args...)
	}
}

// Name returns the original method's runtime name.
func (m *Method[O, A, R]) Name() string {
	return m.name
}

// Owners returns how many live owners currently hold a cache for this method.
func (m *Method[O, A, R]) Owners() int {
	return m.registry.Len()
}

// Getter is a memoized zero-argument accessor. Its single result per owner is
// stored under the nil key.
type Getter[O, R any] struct {
	method *Method[O, struct{}, R]
}

// NewGetter memoizes fn per owner.
func NewGetter[O, R any](fn func(owner *O) (R, error), opts ...Option[R]) *Getter[O, R] {
	call := func(owner *O, _ ...struct{}) (R, error) { return fn(owner) }
	return &Getter[O, R]{method: newMethod(funcName(fn), call, true, opts...)}
}

// Get returns the memoized value for owner.
func (g *Getter[O, R]) Get(owner *O) (R, error) {
	return g.method.Call(owner)
}

// Name returns the original getter's runtime name.
func (g *Getter[O, R]) Name() string {
	return g.method.Name()
}

/*
Decorate memoizes a class member given as a plain value.

member must be either
  - a method: func(*O, ...A) (R, error)
  - a getter: func(*O) (R, error), whose calls ignore any arguments

Anything else (a data value, a nil func, another signature) returns a
*ConfigurationError and nothing is wrapped.
*/
func Decorate[O, A, R any](member any, opts ...Option[R]) (*Method[O, A, R], error) {
	switch fn := member.(type) {
	case func(*O, ...A) (R, error):
		if fn != nil {
			return newMethod(funcName(fn), fn, false, opts...), nil
		}
	case func(*O) (R, error):
		if fn != nil {
			call := func(owner *O, _ ...A) (R, error) { return fn(owner) }
			return newMethod(funcName(fn), call, true, opts...), nil
		}
	}
	return nil, &ConfigurationError{Member: fmt.Sprintf("%T", member)}
}
