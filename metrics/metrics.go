// Package metrics exposes the Prometheus instrumentation for the gateway:
// per-action quota depth, throttler wait time, cache hit/miss counts, and
// outbound call latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registered collectors. All vectors are labeled by
// action (the fully-qualified "<section>.<action>" name).
type Metrics struct {
	QuotaLevel  *prometheus.GaugeVec
	WaitSeconds *prometheus.HistogramVec
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CallLatency *prometheus.HistogramVec
	CallsTotal  *prometheus.CounterVec
	ErrorsTotal *prometheus.CounterVec
}

// New registers the gateway's collectors against registry. Pass
// prometheus.NewRegistry() for an isolated registry (tests) or
// prometheus.DefaultRegisterer to expose via the default /metrics handler.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		QuotaLevel: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "broccoli_throttler_quota_level",
				Help: "Current leaky-bucket quota_level observed after the most recent acquire, per action.",
			},
			[]string{"action"},
		),
		WaitSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "broccoli_throttler_wait_seconds",
				Help:    "Time spent blocked in Throttler.Acquire before admission, per action.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms .. ~82s
			},
			[]string{"action"},
		),
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broccoli_cache_hits_total",
				Help: "Number of Gateway.Invoke calls served from cache, per action.",
			},
			[]string{"action"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broccoli_cache_misses_total",
				Help: "Number of Gateway.Invoke calls that missed the cache, per action.",
			},
			[]string{"action"},
		),
		CallLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "broccoli_call_latency_seconds",
				Help:    "End-to-end latency of the outbound HTTP call, per action.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broccoli_calls_total",
				Help: "Total outbound calls dispatched, per action.",
			},
			[]string{"action"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broccoli_errors_total",
				Help: "Total calls that ended in an error, labeled by action and error class.",
			},
			[]string{"action", "class"},
		),
	}
}
