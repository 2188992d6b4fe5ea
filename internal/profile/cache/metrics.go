package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tierHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calldex_profile_cache_hits_total",
		Help: "Profile cache hits by tier",
	}, []string{"tier"})

	tierMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calldex_profile_cache_misses_total",
		Help: "Lookups that missed every cache tier and the durable store",
	})

	negativeHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calldex_profile_cache_negative_hits_total",
		Help: "Lookups answered by a cached not-found sentinel",
	})

	invalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calldex_profile_cache_invalidations_total",
		Help: "Cache keys invalidated after profile recomputation",
	})

	getDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calldex_profile_cache_get_duration_ms",
		Help:    "Latency of multi-tier cache gets in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
	})
)
