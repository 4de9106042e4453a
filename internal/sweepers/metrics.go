package sweepers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_sweeper_runs_total",
		Help: "Total number of sweeper passes by outcome",
	}, []string{"sweeper", "outcome"})

	sweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_sweeper_duration_seconds",
		Help:    "Duration of successful sweeper passes",
		Buckets: prometheus.DefBuckets,
	}, []string{"sweeper"})
)
