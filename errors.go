package memoize

import "github.com/krisalay/go-memoize/types"

var (
	ErrNotCallable         = types.ErrNotCallable
	ErrNilOwner            = types.ErrNilOwner
	ErrNilCache            = types.ErrNilCache
	ErrComputationPanicked = types.ErrComputationPanicked
)

// ConfigurationError is returned by Decorate for members that are not methods or getters.
type ConfigurationError = types.ConfigurationError
