package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCallable is returned when a decorator is applied to something that is
	// neither a method nor a getter.
	ErrNotCallable = errors.New("decorator can only be used on a method or a getter")

	// ErrNilOwner is returned when a per-owner cache is requested for a nil owner.
	ErrNilOwner = errors.New("owner is nil")

	// ErrNilCache is returned when a cache-from-context function returns no cache.
	ErrNilCache = errors.New("cache from context is nil")

	// ErrComputationPanicked is reported to callers that joined a computation whose function panicked.
	ErrComputationPanicked = errors.New("memoized function panicked")
)

// ConfigurationError reports a decorator applied to an unsupported member.
// No wrapping happens when it is returned.
type ConfigurationError struct {
	// Member is the Go type of the value the decorator was applied to.
	Member string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("memoize: %s, got %s", ErrNotCallable, e.Member)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrNotCallable
}
