// Package memoize caches the results of functions and methods by their arguments.
//
// # Functions
//
// Memoize wraps any func(args ...A) (R, error):
//
//	fib := memoize.Memoize(func(n ...int) (int, error) { return slowFib(n[0]), nil })
//	v, err := fib.Call(40) // computed
//	v, err = fib.Call(40)  // cached
//
// The key is the first argument by default, compared with Go equality, so
// pointers match by identity and calls that differ only in later arguments share
// a result. Use WithKeyFunc (for example KeyAll or KeyJSON) when more than the
// first argument matters.
//
// # Asynchronous results
//
// When the wrapped function returns a *future.Future, the future itself is cached
// the moment it is returned. Callers arriving while it is still pending receive
// the same future, so the work runs once. If the future fails it is evicted and the
// next call starts over; WithCacheRejected keeps the failure cached instead.
//
// # Methods and getters
//
// NewMethod, NewGetter and Decorate memoize per owner. Each owner gets a private
// cache, created on first use and released when the owner is garbage collected.
//
//	type Repo struct{ db *sql.DB }
//
//	var byID = memoize.NewMethod(func(r *Repo, id ...int) (*User, error) {
//		return r.load(id[0])
//	}, memoize.WithMaxAge[*User](time.Minute))
//
//	u, err := byID.Call(repo, 7)
//
// # Expiration
//
// WithMaxAge recomputes entries once strictly more than the max age has passed.
// A max age of zero recomputes on every call; no max age keeps entries forever.
//
// # Concurrency
//
// A memoized function is safe for concurrent use. Calls with the same key that
// arrive while the result is being computed wait for that computation instead
// of starting another.
package memoize
