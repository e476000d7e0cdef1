package memoize

import (
	"reflect"
	"runtime"

	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/engine"
	"github.com/krisalay/go-memoize/store"
)

/*
Func is a memoized function.

Call it exactly like the original. Results are cached by key (the first
argument unless WithKeyFunc is set) in a cache resolved once, when Memoize runs.
*/
type Func[A, R any] struct {
	name   string
	engine *engine.Engine[A, R]
}

/*
Memoize wraps fn so that repeated calls with the same key return the stored result.

BEHAVIOR:
---------
  - A successful result is stored with the time it was produced
  - An error from fn is returned unchanged and nothing is stored
  - A *future.Future result is stored immediately, so concurrent callers share it;
    if it fails it is evicted, unless WithCacheRejected is set
  - Stored results older than the max age (WithMaxAge) are recomputed
*/
func Memoize[A, R any](fn func(args ...A) (R, error), opts ...Option[R]) *Func[A, R] {
	o := applyOptions(opts...)
	name := o.name
	if name == "" {
		name = funcName(fn)
	}

	cache := o.cache
	if cache == nil {
		factory := o.factory
		if factory == nil {
			factory = store.MapFactory[R]
		}
		cache = factory()
	}
	resolve := func(any) (api.Cache[R], error) { return cache, nil }

	call := func(_ any, args []A) (R, error) { return fn(args...) }
	return &Func[A, R]{
		name:   name,
		engine: engine.New[A, R](call, o.engineConfig(name, resolve)),
	}
}

// Call invokes the memoized function.
func (f *Func[A, R]) Call(args ...A) (R, error) {
	return f.engine.Call(nil, args)
}

// Func returns the memoized function with the original signature.
func (f *Func[A, R]) Func() func(args ...A) (R, error) {
	return f.Call
}

// Name returns the original function's name, as reported by the runtime.
func (f *Func[A, R]) Name() string {
	return f.name
}

// funcName returns the runtime name of fn, such as "main.fetchUser" or "pkg.New.func1".
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	if rf := runtime.FuncForPC(v.Pointer()); rf != nil {
		return rf.Name()
	}
	return ""
}
