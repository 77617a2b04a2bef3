package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type CacheMetrics struct {
	HitsTotal           prometheus.Counter
	MissesTotal         prometheus.Counter
	RefreshesTotal      prometheus.Counter
	RefreshFailsTotal   prometheus.Counter
	DegradedServedTotal prometheus.Counter
	StoreWriteFails     prometheus.Counter
	RefreshDuration     prometheus.Histogram
}

func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{
		HitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rate_cache_hits_total",
			Help: "Lookups answered from the in-memory cache without I/O",
		}),
		MissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rate_cache_misses_total",
			Help: "Lookups that found no fresh in-memory snapshot",
		}),
		RefreshesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rate_cache_refreshes_total",
			Help: "Provider refresh attempts (after single-flight collapsing)",
		}),
		RefreshFailsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rate_cache_refresh_failures_total",
			Help: "Provider refresh attempts that failed",
		}),
		DegradedServedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rate_cache_degraded_served_total",
			Help: "Lookups answered with a stale snapshot after a refresh failure",
		}),
		StoreWriteFails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rate_cache_store_write_failures_total",
			Help: "Write-through persistence failures that did not fail the lookup",
		}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rate_cache_refresh_duration_seconds",
			Help:    "Provider refresh duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
