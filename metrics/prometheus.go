package metrics

import (
	"fmt"

	"github.com/krisalay/go-memoize/types"
	"github.com/prometheus/client_golang/prometheus"
)

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus exports memoization events as Prometheus counters labelled with the function name.
type Prometheus struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	expirations prometheus.Counter
	evictions   prometheus.Counter
	coalesced   prometheus.Counter
}

// NewPrometheus creates the counters for one memoized function and registers them with reg.
// Registering the same function name twice with one registry fails, and a failed
// call leaves nothing registered.
func NewPrometheus(reg prometheus.Registerer, function string) (*Prometheus, error) {
	if reg == nil {
		return nil, fmt.Errorf("metrics: registerer is nil")
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "memoize",
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"function": function},
		})
	}
	m := &Prometheus{
		hits:        counter("hits_total", "Total number of calls answered from the cache"),
		misses:      counter("misses_total", "Total number of calls that ran the wrapped function"),
		expirations: counter("expirations_total", "Total number of cached results found past their max age"),
		evictions:   counter("rejections_evicted_total", "Total number of failed asynchronous results evicted"),
		coalesced:   counter("coalesced_total", "Total number of calls that joined an in-flight computation"),
	}
	var registered []prometheus.Collector
	for _, c := range []prometheus.Collector{m.hits, m.misses, m.expirations, m.evictions, m.coalesced} {
		if err := reg.Register(c); err != nil {
			for _, r := range registered {
				reg.Unregister(r)
			}
			return nil, fmt.Errorf("metrics: register %s: %w", function, err)
		}
		registered = append(registered, c)
	}
	return m, nil
}

func (m *Prometheus) Hit()      { m.hits.Inc() }
func (m *Prometheus) Miss()     { m.misses.Inc() }
func (m *Prometheus) Expire()   { m.expirations.Inc() }
func (m *Prometheus) Evict()    { m.evictions.Inc() }
func (m *Prometheus) Coalesce() { m.coalesced.Inc() }
