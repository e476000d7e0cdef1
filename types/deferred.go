package types

/*
Deferred is implemented by results that settle later (futures).

The engine registers OnSettled as soon as the wrapped function returns the
result, before storing it, to learn whether it failed. Callbacks registered with
OnSettled MUST run before anyone waiting on the result is released, otherwise a
caller could observe the failure and call again before the entry is evicted.
If the result has already settled, the callback runs immediately.
*/
type Deferred interface {
	OnSettled(func(err error))
}
