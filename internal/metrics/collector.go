// Package metrics collects per-run counters for the balance command and
// optionally pushes them to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/dmagro/addr-balance/internal/balance"
)

// Collector holds the collectors for one run on a private registry, so
// concurrent runs in one process never share series.
type Collector struct {
	registry    *prometheus.Registry
	fetches     *prometheus.CounterVec
	duration    prometheus.Histogram
	outstanding prometheus.Gauge
	received    prometheus.Counter
}

// New registers a fresh set of collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "balance_fetch_total",
			Help: "History fetches by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "balance_fetch_duration_seconds",
			Help:    "Time from submitting a history request to its completion.",
			Buckets: prometheus.DefBuckets,
		}),
		outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "balance_outstanding_queries",
			Help: "History requests not yet completed.",
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "balance_received_satoshis_total",
			Help: "Sum of total received over successfully fetched addresses.",
		}),
	}
	c.registry.MustRegister(c.fetches, c.duration, c.outstanding, c.received)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Submitted records n newly submitted requests.
func (c *Collector) Submitted(n int) {
	c.outstanding.Set(float64(n))
}

// Completed records one finished request.
func (c *Collector) Completed(elapsed time.Duration, r balance.Result, err error, remaining int) {
	c.duration.Observe(elapsed.Seconds())
	c.outstanding.Set(float64(remaining))
	if err != nil {
		c.fetches.WithLabelValues("failure").Inc()
		return
	}
	c.fetches.WithLabelValues("success").Inc()
	c.received.Add(float64(r.Received))
}

// Push sends every collected series to the Pushgateway at url under job.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(c.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
