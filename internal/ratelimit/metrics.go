package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "calldex_ratelimit_decisions_total",
	Help: "Admission decisions by endpoint class and outcome.",
}, []string{"class", "outcome"})
