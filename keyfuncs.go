package memoize

import "github.com/krisalay/go-memoize/keys"

// Ready-made KeyFuncs built on the keys package.
var (
	// KeyAll joins every argument's string form with "-".
	KeyAll KeyFunc = func(args ...any) (any, error) {
		return keys.All(args...), nil
	}

	// KeyJSON encodes the arguments as a JSON array.
	KeyJSON KeyFunc = func(args ...any) (any, error) {
		return keys.JSON(args...)
	}

	// KeyAnyOrder is KeyAll with the arguments sorted first.
	KeyAnyOrder KeyFunc = func(args ...any) (any, error) {
		return keys.AnyOrder(args...), nil
	}

	// KeyDigest hashes the JSON form of the arguments into a uint64.
	KeyDigest KeyFunc = func(args ...any) (any, error) {
		return keys.Digest(args...)
	}
)
