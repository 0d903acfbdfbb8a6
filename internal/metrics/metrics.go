// Package metrics exposes Prometheus collectors for the resolution
// engine. Collectors register on the default registry; serve them with
// promhttp wherever the embedding process exposes metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Attempts counts individual candidate attempts by outcome.
	Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfind_attempts_total",
			Help: "Total candidate resolution attempts",
		},
		[]string{"chain", "strategy", "outcome"},
	)

	// AttemptLatency tracks per-attempt latency by strategy kind.
	AttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domfind_attempt_latency_seconds",
			Help:    "Candidate attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// Resolutions counts whole resolve calls by final status.
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfind_resolutions_total",
			Help: "Total resolution calls by final status",
		},
		[]string{"chain", "status"}, // status: resolved | healed | exhausted
	)

	// HealingAttempts counts healing passes by result.
	HealingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domfind_healing_attempts_total",
			Help: "Total healing passes",
		},
		[]string{"chain", "result"}, // result: rescued | failed
	)

	// DegradedChains flags chains currently past the failure threshold.
	DegradedChains = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domfind_degraded_chains",
			Help: "Whether a chain is currently degraded (0 or 1)",
		},
		[]string{"chain"},
	)
)
