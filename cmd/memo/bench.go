package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	memoize "github.com/krisalay/go-memoize"
	"github.com/krisalay/go-memoize/api"
	"github.com/krisalay/go-memoize/logger"
	"github.com/krisalay/go-memoize/metrics"
	"github.com/krisalay/go-memoize/store"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type benchConfig struct {
	cache      string
	size       int
	shards     int
	keys       int
	goroutines int
	ops        int
	maxAge     time.Duration
}

func BenchCmd(flags *logFlags) *cobra.Command {
	cfg := benchConfig{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load test a memoized function from many goroutines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBench(cmd.OutOrStdout(), flags.logger(), cfg)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&cfg.cache, "cache", "map", "cache backend: map, lru, fifo, lfu, sharded or ristretto")
	fs.IntVar(&cfg.size, "size", 50000, "capacity of bounded caches")
	fs.IntVar(&cfg.shards, "shards", 8, "number of LRU shards for the sharded backend")
	fs.IntVar(&cfg.keys, "keys", 100000, "number of distinct keys")
	fs.IntVar(&cfg.goroutines, "goroutines", 200, "number of concurrent callers")
	fs.IntVar(&cfg.ops, "ops", 5000, "calls per goroutine")
	fs.DurationVar(&cfg.maxAge, "max-age", 0, "max age of cached results (0 keeps them forever)")
	return cmd
}

func newBenchCache(cfg benchConfig) (api.Cache[int], func(), error) {
	switch cfg.cache {
	case "map":
		return store.NewMap[int](), func() {}, nil
	case "lru":
		c, err := store.NewLRU[int](cfg.size)
		return c, func() {}, err
	case "fifo":
		c, err := store.NewFIFO[int](cfg.size)
		return c, func() {}, err
	case "lfu":
		c, err := store.NewLFU[int](cfg.size)
		return c, func() {}, err
	case "sharded":
		c, err := store.NewSharded[int](cfg.shards, store.LRUFactory[int](max(cfg.size/cfg.shards, 1)))
		return c, func() {}, err
	case "ristretto":
		c, err := store.NewRistretto[int](store.RistrettoConfig{MaxCost: int64(cfg.size)})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.cache)
	}
}

func runBench(out io.Writer, log logger.Logger, cfg benchConfig) error {
	if cfg.keys <= 0 || cfg.goroutines <= 0 || cfg.ops <= 0 || cfg.size <= 0 {
		return fmt.Errorf("keys, goroutines, ops and size must be positive")
	}
	if cfg.cache == "sharded" && cfg.shards <= 0 {
		return fmt.Errorf("shards must be positive")
	}
	cache, closeCache, err := newBenchCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPrometheus(reg, "bench.square")
	if err != nil {
		return err
	}

	opts := []memoize.Option[int]{
		memoize.WithName[int]("bench.square"),
		memoize.WithCache[int](cache),
		memoize.WithMetrics[int](prom),
		memoize.WithLogger[int](log),
	}
	if cfg.maxAge > 0 {
		opts = append(opts, memoize.WithMaxAge[int](cfg.maxAge))
	}
	square := memoize.Memoize(func(n ...int) (int, error) { return n[0] * n[0], nil }, opts...)

	fmt.Fprintln(out, "\n================ MEMOIZE LOAD BENCHMARK =================")
	fmt.Fprintln(out, "CONFIG")
	fmt.Fprintln(out, "---------------------------------")
	fmt.Fprintln(out, "Cache        :", cfg.cache)
	fmt.Fprintln(out, "Capacity     :", cfg.size)
	if cfg.cache == "sharded" {
		fmt.Fprintln(out, "Shards       :", cfg.shards)
	}
	fmt.Fprintln(out, "Keys         :", cfg.keys)
	fmt.Fprintln(out, "Goroutines   :", cfg.goroutines)
	fmt.Fprintln(out, "Ops/Goroutine:", cfg.ops)
	fmt.Fprintln(out, "Max age      :", cfg.maxAge)
	fmt.Fprintln(out, "---------------------------------")

	log.Info("running benchmark", "cache", cfg.cache, "goroutines", cfg.goroutines)
	start := time.Now()

	var g errgroup.Group
	for i := 0; i < cfg.goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < cfg.ops; j++ {
				n := (i*cfg.ops + j) % cfg.keys
				v, err := square.Call(n)
				if err != nil {
					return err
				}
				if v != n*n {
					return fmt.Errorf("square(%d) = %d", n, v)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	duration := time.Since(start)
	totalOps := cfg.goroutines * cfg.ops

	families, err := reg.Gather()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n================ RESULTS =================")
	fmt.Fprintf(out, "Total Operations : %s\n", humanize.Comma(int64(totalOps)))
	fmt.Fprintf(out, "Total Time       : %v\n", duration)
	fmt.Fprintf(out, "Throughput       : %s ops/sec\n", humanize.CommafWithDigits(float64(totalOps)/duration.Seconds(), 2))
	fmt.Fprintf(out, "Hits             : %.0f\n", counterValue(families, "memoize_hits_total"))
	fmt.Fprintf(out, "Misses           : %.0f\n", counterValue(families, "memoize_misses_total"))
	fmt.Fprintf(out, "Coalesced        : %.0f\n", counterValue(families, "memoize_coalesced_total"))
	fmt.Fprintf(out, "Expired          : %.0f\n", counterValue(families, "memoize_expirations_total"))
	fmt.Fprintln(out, "=========================================")
	return nil
}

// counterValue sums every sample of the named counter family.
func counterValue(families []*dto.MetricFamily, name string) float64 {
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
