// Package metrics exposes the hub's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/matheus3301/letschat/internal/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the hub collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ops      *prometheus.CounterVec
	limited  *prometheus.CounterVec
	watchers prometheus.Gauge
	journal  prometheus.Histogram
}

// New creates and registers the collectors. nodes, when not nil, is sampled
// on every scrape as the number of stored leaves.
func New(nodes func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "letschat",
			Subsystem: "hub",
			Name:      "ops_total",
			Help:      "Tree operations by method and gRPC status code.",
		}, []string{"method", "code"}),
		limited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "letschat",
			Subsystem: "hub",
			Name:      "rate_limited_total",
			Help:      "Writes rejected by the per-user rate limiter.",
		}, []string{"method"}),
		watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "letschat",
			Subsystem: "hub",
			Name:      "active_watchers",
			Help:      "Open Watch streams.",
		}),
		journal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "letschat",
			Subsystem: "hub",
			Name:      "journal_apply_seconds",
			Help:      "Latency of journal batch writes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ops, m.limited, m.watchers, m.journal,
	)
	if nodes != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "letschat",
			Subsystem: "hub",
			Name:      "journal_nodes",
			Help:      "Leaves stored in the journal.",
		}, nodes))
	}
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOp counts one finished operation.
func (m *Metrics) ObserveOp(method, code string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(method, code).Inc()
}

// ObserveLimited counts one rejected write.
func (m *Metrics) ObserveLimited(method string) {
	if m == nil {
		return
	}
	m.limited.WithLabelValues(method).Inc()
}

// WatchStarted and WatchEnded track open Watch streams.
func (m *Metrics) WatchStarted() {
	if m != nil {
		m.watchers.Inc()
	}
}

func (m *Metrics) WatchEnded() {
	if m != nil {
		m.watchers.Dec()
	}
}

// Journal wraps j so every batch is timed.
func (m *Metrics) Journal(j tree.Journal) tree.Journal {
	if m == nil {
		return j
	}
	return timedJournal{next: j, hist: m.journal}
}

type timedJournal struct {
	next tree.Journal
	hist prometheus.Histogram
}

func (t timedJournal) Apply(writes []tree.Write) error {
	start := time.Now()
	err := t.next.Apply(writes)
	t.hist.Observe(time.Since(start).Seconds())
	return err
}
