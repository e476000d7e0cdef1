// Package keys builds deterministic string cache keys from argument lists.
//
// None of these helpers cache anything. They exist so callers can turn
// multi-argument calls into a single key for a memoized function:
//
//	memoize.WithKeyFunc[int](memoize.KeyAll)
//
// Pick the helper that matches the arguments:
//
//   - All joins the string form of every argument with "-". Composite values
//     other than slices collapse into their fmt form.
//   - JSON encodes the whole argument list as a JSON array. Use it for structs
//     and maps.
//   - AnyOrder is All after sorting, for calls where argument order does not matter.
//   - Digest hashes the JSON form into a uint64 when keys would otherwise be large.
package keys

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
)

const separator = "-"

// All returns the string form of every argument joined with "-".
//
//	All()                      == ""
//	All(nil)                   == "null"
//	All("str", 100, true, nil) == "str-100-true-null"
//	All([]any{"a", 1, nil})    == "a,1,"
func All(args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = String(a)
	}
	return strings.Join(parts, separator)
}

// AnyOrder returns the same key for the same arguments in any order.
// Arguments are converted with String, sorted, then joined with "-".
func AnyOrder(args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = String(a)
	}
	slices.Sort(parts)
	return strings.Join(parts, separator)
}

// JSON encodes the argument list as a JSON array.
//
//	JSON()              == "[]"
//	JSON(nil)           == "[null]"
//	JSON(map[string]int{"a": 1}, true) == `[{"a":1},true]`
//
// Values JSON cannot represent (channels, funcs, cycles) return an error.
func JSON(args ...any) (string, error) {
	if args == nil {
		args = []any{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("keys: encode arguments: %w", err)
	}
	return string(b), nil
}

// Digest returns the xxhash of the JSON form of args.
// Distinct argument lists can collide; use it only where a rare collision is acceptable.
func Digest(args ...any) (uint64, error) {
	s, err := JSON(args...)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64String(s), nil
}

// String converts one argument the way All does.
// nil is "null"; slices and arrays join their elements with "," and render nil
// elements as empty strings; Stringers use String; everything else uses fmt.
func String(v any) string {
	if v == nil {
		return "null"
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "null"
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = element(rv.Index(i))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

func element(v reflect.Value) string {
	if (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) && v.IsNil() {
		return ""
	}
	return String(v.Interface())
}
