package memoize_test

import (
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	memoize "github.com/krisalay/go-memoize"
	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/eviction"
	"github.com/krisalay/go-memoize/future"
	"github.com/krisalay/go-memoize/metrics"
	"github.com/krisalay/go-memoize/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var errFailed = errors.New("Failed")

// makeCounter returns a function producing 0, 1, 2, ... on successive calls.
func makeCounter() (func(args ...any) (int, error), *atomic.Int64) {
	var calls atomic.Int64
	return func(args ...any) (int, error) {
		return int(calls.Add(1) - 1), nil
	}, &calls
}

// makeAsyncCounter is makeCounter returning futures.
func makeAsyncCounter() (func(args ...any) (*future.Future[int], error), *atomic.Int64) {
	var calls atomic.Int64
	return func(args ...any) (*future.Future[int], error) {
		n := int(calls.Add(1) - 1)
		return future.Go(func() (int, error) { return n, nil }), nil
	}, &calls
}

// makeFlaky fails on odd calls and succeeds on even ones.
func makeFlaky() func(args ...any) (bool, error) {
	var calls atomic.Int64
	return func(args ...any) (bool, error) {
		if calls.Add(1)%2 == 1 {
			return false, errFailed
		}
		return true, nil
	}
}

// makeAsyncFlaky is makeFlaky returning futures that reject on odd calls.
func makeAsyncFlaky() func(args ...any) (*future.Future[bool], error) {
	var calls atomic.Int64
	return func(args ...any) (*future.Future[bool], error) {
		fail := calls.Add(1)%2 == 1
		return future.Go(func() (bool, error) {
			if fail {
				return false, errFailed
			}
			return true, nil
		}), nil
	}
}

func answer(args ...string) (int, error) {
	return 42, nil
}

// storedBefore expires entries stored before cutoff.
type storedBefore struct {
	cutoff time.Time
}

func (s *storedBefore) IsExpired(storedAt, _ time.Time) bool {
	return storedAt.Before(s.cutoff)
}

func mustCall[R any](t *testing.T, f *memoize.Func[any, R], args ...any) R {
	t.Helper()
	v, err := f.Call(args...)
	require.NoError(t, err)
	return v
}

func TestMemoize_Caching(t *testing.T) {
	t.Run("Should return the first result for repeated calls with the same argument", func(t *testing.T) {
		counter, calls := makeCounter()
		m := memoize.Memoize(counter)

		assert.Equal(t, 0, mustCall(t, m))
		assert.Equal(t, 0, mustCall(t, m))
		assert.Equal(t, 1, mustCall(t, m, ""))
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("Should cache different keys independently", func(t *testing.T) {
		counter, _ := makeCounter()
		m := memoize.Memoize(counter)

		assert.Equal(t, 0, mustCall(t, m, "a"))
		assert.Equal(t, 1, mustCall(t, m, "b"))
		assert.Equal(t, 0, mustCall(t, m, "a"))
		assert.Equal(t, 1, mustCall(t, m, "b"))
	})

	t.Run("Should key on the first argument only by default", func(t *testing.T) {
		counter, _ := makeCounter()
		m := memoize.Memoize(counter)

		assert.Equal(t, 0, mustCall(t, m, "a", 1))
		assert.Equal(t, 0, mustCall(t, m, "a", 2))
	})

	t.Run("Should compare pointer arguments by identity", func(t *testing.T) {
		type point struct{ x int }
		counter, _ := makeCounter()
		m := memoize.Memoize(counter)
		p1, p2 := &point{1}, &point{1}

		assert.Equal(t, 0, mustCall(t, m, p1))
		assert.Equal(t, 1, mustCall(t, m, p2))
		assert.Equal(t, 0, mustCall(t, m, p1))
	})

	t.Run("Should expose the memoized function with the original signature", func(t *testing.T) {
		counter, _ := makeCounter()
		fn := memoize.Memoize(counter).Func()

		a, err := fn("x")
		require.NoError(t, err)
		b, err := fn("x")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("Should memoize recursive calls without deadlocking", func(t *testing.T) {
		var fib *memoize.Func[int, int]
		fib = memoize.Memoize(func(n ...int) (int, error) {
			if n[0] < 2 {
				return n[0], nil
			}
			a, err := fib.Call(n[0] - 1)
			if err != nil {
				return 0, err
			}
			b, err := fib.Call(n[0] - 2)
			if err != nil {
				return 0, err
			}
			return a + b, nil
		})

		v, err := fib.Call(80)
		require.NoError(t, err)
		assert.Equal(t, 23416728348467685, v)
	})
}

func TestMemoize_Name(t *testing.T) {
	t.Run("Should report the original function name", func(t *testing.T) {
		m := memoize.Memoize(answer)
		assert.True(t, strings.HasSuffix(m.Name(), ".answer"), m.Name())
	})

	t.Run("Should report the configured name", func(t *testing.T) {
		m := memoize.Memoize(answer, memoize.WithName[int]("lookup"))
		assert.Equal(t, "lookup", m.Name())
	})
}

func TestMemoize_Errors(t *testing.T) {
	t.Run("Should not cache synchronous failures", func(t *testing.T) {
		m := memoize.Memoize(makeFlaky())

		_, err := m.Call()
		require.ErrorIs(t, err, errFailed)
		assert.Same(t, errFailed, err)

		v, err := m.Call()
		require.NoError(t, err)
		assert.True(t, v)
	})

	t.Run("Should not cache rejected futures by default", func(t *testing.T) {
		m := memoize.Memoize(makeAsyncFlaky())

		f1, err := m.Call()
		require.NoError(t, err)
		_, err = f1.Wait()
		require.ErrorIs(t, err, errFailed)

		f2, err := m.Call()
		require.NoError(t, err)
		assert.NotSame(t, f1, f2)
		v, err := f2.Wait()
		require.NoError(t, err)
		assert.True(t, v)
	})

	t.Run("Should replay rejected futures when asked to cache them", func(t *testing.T) {
		m := memoize.Memoize(makeAsyncFlaky(), memoize.WithCacheRejected[*future.Future[bool]]())

		f1, err := m.Call()
		require.NoError(t, err)
		_, err1 := f1.Wait()
		require.ErrorIs(t, err1, errFailed)

		f2, err := m.Call()
		require.NoError(t, err)
		assert.Same(t, f1, f2)
		_, err2 := f2.Wait()
		assert.Same(t, err1, err2)
	})

	t.Run("Should evict a future that was already rejected when returned", func(t *testing.T) {
		var calls atomic.Int64
		m := memoize.Memoize(func(args ...any) (*future.Future[int], error) {
			if calls.Add(1) == 1 {
				return future.Rejected[int](errFailed), nil
			}
			return future.Resolved(7), nil
		})

		f1, err := m.Call("k")
		require.NoError(t, err)
		_, err = f1.Wait()
		require.ErrorIs(t, err, errFailed)

		f2, err := m.Call("k")
		require.NoError(t, err)
		v, err := f2.Wait()
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("Should propagate panics and store nothing", func(t *testing.T) {
		var calls atomic.Int64
		m := memoize.Memoize(func(args ...any) (int, error) {
			if calls.Add(1) == 1 {
				panic("boom")
			}
			return 1, nil
		})

		assert.PanicsWithValue(t, "boom", func() { _, _ = m.Call("k") })
		assert.Equal(t, 1, mustCall(t, m, "k"))
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("Should call through without caching for keys that are not comparable", func(t *testing.T) {
		counter, calls := makeCounter()
		m := memoize.Memoize(counter)

		assert.Equal(t, 0, mustCall(t, m, []int{1, 2}))
		assert.Equal(t, 1, mustCall(t, m, []int{1, 2}))
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("Should propagate key derivation failures", func(t *testing.T) {
		counter, calls := makeCounter()
		m := memoize.Memoize(counter, memoize.WithKeyFunc[int](memoize.KeyJSON))

		_, err := m.Call(make(chan int))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "derive cache key")
		assert.Zero(t, calls.Load())
	})
}

func TestMemoize_Expiration(t *testing.T) {
	t.Run("Should keep entries until strictly more than the max age has passed", func(t *testing.T) {
		mock := clock.NewMock()
		counter, _ := makeCounter()
		m := memoize.Memoize(counter,
			memoize.WithMaxAge[int](100*time.Millisecond),
			memoize.WithClock[int](mock),
		)

		assert.Equal(t, 0, mustCall(t, m, "k"))
		mock.Add(100 * time.Millisecond)
		assert.Equal(t, 0, mustCall(t, m, "k"))
		mock.Add(time.Millisecond)
		assert.Equal(t, 1, mustCall(t, m, "k"))
		assert.Equal(t, 1, mustCall(t, m, "k"))
	})

	t.Run("Should apply the same boundary for a max age in milliseconds", func(t *testing.T) {
		mock := clock.NewMock()
		counter, _ := makeCounter()
		m := memoize.Memoize(counter,
			memoize.WithMaxAgeMillis[int](250),
			memoize.WithClock[int](mock),
		)

		assert.Equal(t, 0, mustCall(t, m))
		mock.Add(250 * time.Millisecond)
		assert.Equal(t, 0, mustCall(t, m))
		mock.Add(time.Millisecond)
		assert.Equal(t, 1, mustCall(t, m))
	})

	t.Run("Should recompute on every call when the max age is zero", func(t *testing.T) {
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithMaxAge[int](0))

		assert.Equal(t, 0, mustCall(t, m, "k"))
		assert.Equal(t, 1, mustCall(t, m, "k"))
		assert.Equal(t, 2, mustCall(t, m, "k"))
	})

	t.Run("Should never expire without a finite max age", func(t *testing.T) {
		for name, opt := range map[string]memoize.Option[int]{
			"unset": nil,
			"NaN":   memoize.WithMaxAgeMillis[int](math.NaN()),
			"+Inf":  memoize.WithMaxAgeMillis[int](math.Inf(1)),
		} {
			t.Run(name, func(t *testing.T) {
				mock := clock.NewMock()
				counter, _ := makeCounter()
				m := memoize.Memoize(counter, opt, memoize.WithClock[int](mock))

				assert.Equal(t, 0, mustCall(t, m))
				mock.Add(24 * 365 * time.Hour)
				assert.Equal(t, 0, mustCall(t, m))
			})
		}
	})

	t.Run("Should count expirations", func(t *testing.T) {
		mock := clock.NewMock()
		counter, _ := makeCounter()
		var c metrics.Counter
		m := memoize.Memoize(counter,
			memoize.WithMaxAge[int](time.Second),
			memoize.WithClock[int](mock),
			memoize.WithMetrics[int](&c),
		)

		mustCall(t, m)
		mock.Add(2 * time.Second)
		mustCall(t, m)

		snap := c.Snapshot()
		assert.EqualValues(t, 1, snap.Expirations)
		assert.EqualValues(t, 2, snap.Misses)
	})
	t.Run("Should use a custom expiration strategy", func(t *testing.T) {
		mock := clock.NewMock()
		strategy := &storedBefore{}
		counter, _ := makeCounter()
		m := memoize.Memoize(counter,
			memoize.WithExpiration[int](strategy),
			memoize.WithClock[int](mock),
		)

		assert.Equal(t, 0, mustCall(t, m))
		assert.Equal(t, 0, mustCall(t, m))

		mock.Add(time.Minute)
		strategy.cutoff = mock.Now()
		assert.Equal(t, 1, mustCall(t, m))
		assert.Equal(t, 1, mustCall(t, m))
	})
}

func TestMemoize_Async(t *testing.T) {
	t.Run("Should return futures and cache them", func(t *testing.T) {
		counter, calls := makeAsyncCounter()
		m := memoize.Memoize(counter)

		f1, err := m.Call()
		require.NoError(t, err)
		v1, err := f1.Wait()
		require.NoError(t, err)
		f2, err := m.Call()
		require.NoError(t, err)
		v2, err := f2.Wait()
		require.NoError(t, err)

		assert.Equal(t, 0, v1)
		assert.Equal(t, v1, v2)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("Should hand the same pending future to calls made before it settles", func(t *testing.T) {
		var calls atomic.Int64
		pending, resolve, _ := future.New[int]()
		m := memoize.Memoize(func(args ...string) (*future.Future[int], error) {
			calls.Add(1)
			return pending, nil
		})

		f1, err := m.Call("k")
		require.NoError(t, err)
		f2, err := m.Call("k")
		require.NoError(t, err)
		assert.Same(t, f1, f2)

		resolve(5)
		v, err := f2.Wait()
		require.NoError(t, err)
		assert.Equal(t, 5, v)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("Should report a rejection to every caller sharing the future", func(t *testing.T) {
		pending, _, reject := future.New[int]()
		m := memoize.Memoize(func(args ...string) (*future.Future[int], error) {
			return pending, nil
		})

		f1, _ := m.Call("k")
		f2, _ := m.Call("k")
		reject(errFailed)

		_, err1 := f1.Wait()
		_, err2 := f2.Wait()
		assert.Same(t, errFailed, err1)
		assert.Same(t, errFailed, err2)
	})

	t.Run("Should only evict the entry created by the rejected call", func(t *testing.T) {
		cache := store.NewMap[*future.Future[int]]()
		first, _, rejectFirst := future.New[int]()
		var calls atomic.Int64
		m := memoize.Memoize(func(args ...string) (*future.Future[int], error) {
			if calls.Add(1) == 1 {
				return first, nil
			}
			return future.Resolved(2), nil
		},
			memoize.WithCache[*future.Future[int]](cache),
			memoize.WithMaxAge[*future.Future[int]](0),
		)

		_, err := m.Call("k")
		require.NoError(t, err)
		second, err := m.Call("k")
		require.NoError(t, err)

		rejectFirst(errFailed)

		ent, ok := cache.Get("k")
		require.True(t, ok)
		assert.Same(t, second, ent.Value)
	})
}

func TestMemoize_Concurrency(t *testing.T) {
	t.Run("Should run the function once for concurrent calls with the same key", func(t *testing.T) {
		var calls atomic.Int64
		gate := make(chan struct{})
		m := memoize.Memoize(func(args ...string) (int, error) {
			calls.Add(1)
			<-gate
			return 9, nil
		})

		var g errgroup.Group
		for i := 0; i < 16; i++ {
			g.Go(func() error {
				v, err := m.Call("k")
				if err != nil {
					return err
				}
				if v != 9 {
					return errors.New("unexpected value")
				}
				return nil
			})
		}
		time.Sleep(20 * time.Millisecond)
		close(gate)

		require.NoError(t, g.Wait())
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("Should compute different keys in parallel", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan string, 2)
		m := memoize.Memoize(func(args ...string) (string, error) {
			started <- args[0]
			<-release
			return args[0], nil
		})

		var g errgroup.Group
		g.Go(func() error { _, err := m.Call("a"); return err })
		g.Go(func() error { _, err := m.Call("b"); return err })

		<-started
		<-started
		close(release)
		require.NoError(t, g.Wait())
	})
}

func TestMemoize_CacheOptions(t *testing.T) {
	t.Run("Should share an explicit cache between memoized functions", func(t *testing.T) {
		cache := store.NewMap[int]()
		c1, _ := makeCounter()
		c2, _ := makeCounter()
		first := memoize.Memoize(c1, memoize.WithCache[int](cache))
		second := memoize.Memoize(c2, memoize.WithCache[int](cache))

		mustCall(t, first, "k")
		mustCall(t, first, "j")
		assert.Equal(t, 0, mustCall(t, second, "k"))
		assert.Equal(t, 1, mustCall(t, second, "j"))
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("Should call the cache factory once when wrapping", func(t *testing.T) {
		var made atomic.Int64
		factory := func() api.Cache[int] {
			made.Add(1)
			return store.NewMap[int]()
		}
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithCacheFactory[int](factory))
		assert.EqualValues(t, 1, made.Load())

		mustCall(t, m, 1)
		mustCall(t, m, 2)
		assert.EqualValues(t, 1, made.Load())
	})

	t.Run("Should work with a bounded LRU cache", func(t *testing.T) {
		lru, err := store.NewLRU[int](2)
		require.NoError(t, err)
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithCache[int](lru))

		assert.Equal(t, 0, mustCall(t, m, "a"))
		assert.Equal(t, 1, mustCall(t, m, "b"))
		assert.Equal(t, 2, mustCall(t, m, "c"))
		assert.Equal(t, 3, mustCall(t, m, "a"))
	})

	t.Run("Should work with a sharded cache of LFU shards", func(t *testing.T) {
		sharded, err := store.NewSharded[int](4, store.BoundedFactory[int](16, eviction.LFU))
		require.NoError(t, err)
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithCache[int](sharded))

		for i := 0; i < 10; i++ {
			assert.Equal(t, i, mustCall(t, m, i))
		}
		for i := 0; i < 10; i++ {
			assert.Equal(t, i, mustCall(t, m, i))
		}
		assert.Equal(t, 10, sharded.Len())
	})

	t.Run("Should resolve the cache per call from context", func(t *testing.T) {
		cache := store.NewMap[int]()
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithCacheFromContext(func(owner any) api.Cache[int] {
			assert.Nil(t, owner)
			return cache
		}))

		mustCall(t, m, "k")
		assert.True(t, cache.Has("k"))
	})

	t.Run("Should fail when the context function returns no cache", func(t *testing.T) {
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithCacheFromContext(func(any) api.Cache[int] {
			return nil
		}))

		_, err := m.Call("k")
		require.ErrorIs(t, err, memoize.ErrNilCache)
	})
}

func TestMemoize_KeyFuncs(t *testing.T) {
	t.Run("Should distinguish every argument with KeyAll", func(t *testing.T) {
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithKeyFunc[int](memoize.KeyAll))

		assert.Equal(t, 0, mustCall(t, m, "a", 1))
		assert.Equal(t, 1, mustCall(t, m, "a", 2))
		assert.Equal(t, 0, mustCall(t, m, "a", 1))
	})

	t.Run("Should ignore argument order with KeyAnyOrder", func(t *testing.T) {
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithKeyFunc[int](memoize.KeyAnyOrder))

		assert.Equal(t, 0, mustCall(t, m, 1, 2, 3))
		assert.Equal(t, 0, mustCall(t, m, 3, 1, 2))
	})

	t.Run("Should compare structured arguments by value with KeyJSON", func(t *testing.T) {
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithKeyFunc[int](memoize.KeyJSON))

		assert.Equal(t, 0, mustCall(t, m, map[string]int{"a": 1}))
		assert.Equal(t, 0, mustCall(t, m, map[string]int{"a": 1}))
		assert.Equal(t, 1, mustCall(t, m, map[string]int{"a": 2}))
	})

	t.Run("Should key on a digest with KeyDigest", func(t *testing.T) {
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithKeyFunc[int](memoize.KeyDigest))

		assert.Equal(t, 0, mustCall(t, m, []int{1, 2}))
		assert.Equal(t, 0, mustCall(t, m, []int{1, 2}))
		assert.Equal(t, 1, mustCall(t, m, []int{2, 1}))
	})
}

func TestMemoize_Metrics(t *testing.T) {
	t.Run("Should report hits and misses", func(t *testing.T) {
		var c metrics.Counter
		counter, _ := makeCounter()
		m := memoize.Memoize(counter, memoize.WithMetrics[int](&c))

		mustCall(t, m, "a")
		mustCall(t, m, "a")
		mustCall(t, m, "b")

		snap := c.Snapshot()
		assert.EqualValues(t, 1, snap.Hits)
		assert.EqualValues(t, 2, snap.Misses)
		assert.InDelta(t, 1.0/3.0, snap.HitRate(), 1e-9)
	})

	t.Run("Should report rejected futures evicted", func(t *testing.T) {
		var c metrics.Counter
		m := memoize.Memoize(makeAsyncFlaky(), memoize.WithMetrics[*future.Future[bool]](&c))

		f, err := m.Call()
		require.NoError(t, err)
		_, _ = f.Wait()

		assert.EqualValues(t, 1, c.Snapshot().Evictions)
	})
}
