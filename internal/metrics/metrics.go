// Package metrics collects and exposes Prometheus counters for the session
// flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the ledger's Metrics contract.
type Collector struct {
	registry  *prometheus.Registry
	entries   *prometheus.CounterVec
	exits     *prometheus.CounterVec
	charged   prometheus.Counter
	conflicts *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartpark_entries_total",
			Help: "Sessions opened, by entry method.",
		}, []string{"method"}),
		exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartpark_exits_total",
			Help: "Sessions closed, by entry method.",
		}, []string{"method"}),
		charged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartpark_charged_total",
			Help: "Sum of charges computed on exit, in currency units.",
		}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartpark_conflicts_total",
			Help: "Business-rule rejections, by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(c.entries, c.exits, c.charged, c.conflicts)
	return c
}

// RecordEntry counts one opened session.
func (c *Collector) RecordEntry(method string) {
	c.entries.WithLabelValues(method).Inc()
}

// RecordExit counts one closed session and its charge.
func (c *Collector) RecordExit(method string, charge float64) {
	c.exits.WithLabelValues(method).Inc()
	c.charged.Add(charge)
}

// RecordConflict counts one refused transition.
func (c *Collector) RecordConflict(op string) {
	c.conflicts.WithLabelValues(op).Inc()
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
