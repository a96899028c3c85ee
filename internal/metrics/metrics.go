package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once
	shared   *Metrics
)

// Metrics holds the process-wide Prometheus collectors
type Metrics struct {
	quotes          *prometheus.CounterVec
	quoteLatency    *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
	poolGeneration  prometheus.Gauge
	poolsLoaded     prometheus.Gauge
	snapshotAge     prometheus.Gauge
	publishFailures prometheus.Counter
}

// Get returns the shared collectors, registering them on first use
func Get() *Metrics {
	initOnce.Do(func() {
		m := &Metrics{
			quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "thorquote_quotes_total",
				Help: "Quote requests by route and outcome.",
			}, []string{"route", "outcome"}),
			quoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "thorquote_quote_duration_seconds",
				Help:    "Time spent computing a quote.",
				Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .05},
			}, []string{"route"}),
			refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "thorquote_refreshes_total",
				Help: "Snapshot refresh attempts by result.",
			}, []string{"result"}),
			poolGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "thorquote_snapshot_generation",
				Help: "Generation of the snapshot currently served.",
			}),
			poolsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "thorquote_pools_loaded",
				Help: "Number of pools in the current snapshot.",
			}),
			snapshotAge: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "thorquote_snapshot_fetched_timestamp_seconds",
				Help: "Unix time the current snapshot was fetched.",
			}),
			publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "thorquote_quote_publish_failures_total",
				Help: "Quotes that could not be cached, published or stored.",
			}),
		}
		prometheus.MustRegister(m.quotes, m.quoteLatency, m.refreshes, m.poolGeneration, m.poolsLoaded, m.snapshotAge, m.publishFailures)
		shared = m
	})
	return shared
}

// ObserveQuote records one quote computation. outcome is "ok", a soft
// reason, or a rejection kind.
func (m *Metrics) ObserveQuote(route, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "none"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.quotes.WithLabelValues(route, outcome).Inc()
	m.quoteLatency.WithLabelValues(route).Observe(took.Seconds())
}

// ObserveRefresh records a refresh attempt and, on success, the snapshot
// now being served.
func (m *Metrics) ObserveRefresh(err error, generation uint64, pools int, fetchedAt time.Time) {
	if m == nil {
		return
	}
	if err != nil {
		m.refreshes.WithLabelValues("error").Inc()
		return
	}
	m.refreshes.WithLabelValues("ok").Inc()
	m.poolGeneration.Set(float64(generation))
	m.poolsLoaded.Set(float64(pools))
	m.snapshotAge.Set(float64(fetchedAt.Unix()))
}

func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}
