package main

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	memoize "github.com/krisalay/go-memoize"
	"github.com/krisalay/go-memoize/future"
	"github.com/krisalay/go-memoize/logger"
	"github.com/krisalay/go-memoize/metrics"
	"github.com/spf13/cobra"
)

// ================= SAMPLE SERVICE =================

// catalog stands in for a slow backend. Every lookup is counted.
type catalog struct {
	lookups atomic.Int64
	delay   time.Duration
	prices  map[string]int
}

func (c *catalog) price(sku ...string) (int, error) {
	c.lookups.Add(1)
	time.Sleep(c.delay)
	p, ok := c.prices[sku[0]]
	if !ok {
		return 0, fmt.Errorf("unknown sku %q", sku[0])
	}
	return p, nil
}

// stockAsync fails its first lookup, like a backend that is still warming up.
func (c *catalog) stockAsync(sku ...string) (*future.Future[int], error) {
	n := c.lookups.Add(1)
	return future.Go(func() (int, error) {
		time.Sleep(c.delay)
		if n == 1 {
			return 0, errors.New("backend warming up")
		}
		return len(sku[0]) * 10, nil
	}), nil
}

// ================= DEMO =================

func DemoCmd(flags *logFlags) *cobra.Command {
	var maxAge time.Duration
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Show hits, expiration, coalescing and rejection eviction step by step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.OutOrStdout(), flags.logger(), maxAge)
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 200*time.Millisecond, "max age of cached prices")
	return cmd
}

func runDemo(out io.Writer, log logger.Logger, maxAge time.Duration) error {
	svc := &catalog{delay: 50 * time.Millisecond, prices: map[string]int{"a": 100, "b": 250}}
	stats := &metrics.Counter{}

	price := memoize.Memoize(svc.price,
		memoize.WithName[int]("catalog.price"),
		memoize.WithMaxAge[int](maxAge),
		memoize.WithMetrics[int](stats),
		memoize.WithLogger[int](log),
	)

	fmt.Fprintln(out, "\n==================== 1) MISS ====================")
	v, err := price.Call("a")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "price(a) = %d  lookups=%d\n", v, svc.lookups.Load())

	fmt.Fprintln(out, "\n==================== 2) HIT ====================")
	v, _ = price.Call("a")
	fmt.Fprintf(out, "price(a) = %d  lookups=%d\n", v, svc.lookups.Load())

	fmt.Fprintln(out, "\n==================== 3) ERRORS ARE NOT CACHED ====================")
	for i := 0; i < 2; i++ {
		_, err = price.Call("missing")
		fmt.Fprintf(out, "price(missing) error = %v  lookups=%d\n", err, svc.lookups.Load())
	}

	fmt.Fprintln(out, "\n==================== 4) MAX AGE ====================")
	time.Sleep(maxAge + 10*time.Millisecond)
	v, _ = price.Call("a")
	fmt.Fprintf(out, "price(a) after %v = %d  lookups=%d\n", maxAge, v, svc.lookups.Load())

	fmt.Fprintln(out, "\n==================== 5) CONCURRENT CALLERS ====================")
	before := svc.lookups.Load()
	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, _ := price.Call("b")
			fmt.Fprintf(out, "GOROUTINE-%d  price(b) = %d\n", id, val)
		}(i)
	}
	wg.Wait()
	fmt.Fprintf(out, "lookups for 5 callers = %d\n", svc.lookups.Load()-before)

	fmt.Fprintln(out, "\n==================== 6) REJECTED FUTURES ====================")
	svc.lookups.Store(0)
	stock := memoize.Memoize(svc.stockAsync,
		memoize.WithName[*future.Future[int]]("catalog.stock"),
		memoize.WithMetrics[*future.Future[int]](stats),
		memoize.WithLogger[*future.Future[int]](log),
	)
	for i := 0; i < 3; i++ {
		f, _ := stock.Call("a")
		n, err := f.Wait()
		fmt.Fprintf(out, "stock(a) = %d  error=%v  lookups=%d\n", n, err, svc.lookups.Load())
	}

	snap := stats.Snapshot()
	fmt.Fprintln(out, "\n==================== METRICS ====================")
	fmt.Fprintf(out, "HITS        : %d\n", snap.Hits)
	fmt.Fprintf(out, "MISSES      : %d\n", snap.Misses)
	fmt.Fprintf(out, "EXPIRED     : %d\n", snap.Expirations)
	fmt.Fprintf(out, "EVICTED     : %d\n", snap.Evictions)
	fmt.Fprintf(out, "COALESCED   : %d\n", snap.Coalesced)
	fmt.Fprintf(out, "HIT RATE    : %.2f\n", snap.HitRate())
	return nil
}
