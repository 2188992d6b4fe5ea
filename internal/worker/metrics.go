package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calldex_worker_events_processed_total",
		Help: "Events handled successfully, by type",
	}, []string{"type"})

	eventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calldex_worker_events_failed_total",
		Help: "Event handling failures (before retry accounting), by type",
	}, []string{"type"})

	eventsRetried = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calldex_worker_events_retried_total",
		Help: "Events requeued for another attempt, by type",
	}, []string{"type"})

	eventsDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calldex_worker_events_dead_lettered_total",
		Help: "Events dropped after exhausting retries, by type",
	}, []string{"type"})

	rebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calldex_worker_rebuild_duration_ms",
		Help:    "Single-number profile rebuild latency in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
)
