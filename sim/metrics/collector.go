// Package metrics exports benchmark outcomes as Prometheus metrics.
//
// The Collector owns a private registry, so several benchmarks in one process
// never collide on the default registry. Metrics are written to a text file
// in the exposition format; the benchmark opens no network listener.
//
// A nil *Collector is valid and records nothing.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/cachesim/sim/trace"
)

const namespace = "cachesim"

// Collector records per-policy benchmark metrics.
type Collector struct {
	registry *prometheus.Registry

	timeslots *prometheus.CounterVec
	hits      *prometheus.CounterVec
	utility   *prometheus.GaugeVec
	regret    *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
	failures  *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		timeslots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeslots_total",
			Help:      "Timeslots simulated per policy",
		}, []string{"policy"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Requests served from cache per policy",
		}, []string{"policy"}),
		utility: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cumulative_utility",
			Help:      "Total utility accumulated over the horizon",
		}, []string{"policy"}),
		regret: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regret",
			Help:      "Utility gap to the best static configuration in hindsight",
		}, []string{"policy"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "policy_duration_seconds",
			Help:      "Wall-clock time of one policy run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		}, []string{"policy"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_failures_total",
			Help:      "Policy tasks that ended with an error",
		}, []string{"policy"}),
	}

	for _, m := range []prometheus.Collector{c.timeslots, c.hits, c.utility, c.regret, c.duration, c.failures} {
		if err := c.registry.Register(m); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return c, nil
}

// Registry exposes the private registry, e.g. for gathering in tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveRun records the outcome of a completed policy run.
func (c *Collector) ObserveRun(run *trace.Run) {
	if c == nil || run == nil {
		return
	}
	c.timeslots.WithLabelValues(run.Policy).Add(float64(len(run.Utility)))
	c.hits.WithLabelValues(run.Policy).Add(float64(run.HitCount()))
	c.utility.WithLabelValues(run.Policy).Set(run.Total())
	c.duration.WithLabelValues(run.Policy).Observe(run.Elapsed.Seconds())
}

// SetRegret records the regret of policy against the hindsight optimum.
func (c *Collector) SetRegret(policy string, regret float64) {
	if c == nil {
		return
	}
	c.regret.WithLabelValues(policy).Set(regret)
}

// RecordFailure counts a failed policy task.
func (c *Collector) RecordFailure(policy string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(policy).Inc()
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
