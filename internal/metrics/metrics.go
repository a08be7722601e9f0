// Package metrics defines the prometheus instruments for the packing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Packing run metrics
	PackRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pack_runs_total",
			Help: "Total number of bed packing runs",
		},
		[]string{"status"}, // status: success, invalid_input, cancelled, panic
	)

	PackDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pack_duration_seconds",
			Help:    "Duration of one bed packing run in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	PackPlacements = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pack_placements",
			Help:    "Number of plants placed per run",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	PackFillRate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pack_fill_rate",
			Help:    "Placed/requested ratio per run",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 1},
		},
	)

	PackDensity = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pack_density",
			Help:    "Packing density (disk area / bed area) per run",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
		},
	)

	// Convergence and fallback metrics
	ConvergenceIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pack_convergence_iterations",
			Help:    "Relaxation iterations used per phase",
			Buckets: []float64{10, 25, 50, 100, 200, 300, 500},
		},
		[]string{"phase"}, // phase: cluster, member, collision
	)

	FallbackActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pack_fallback_activations_total",
			Help: "Total activations of placement fallback phases",
		},
		[]string{"phase"}, // phase: greedy, emergency
	)

	ResidualViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pack_residual_violations_total",
			Help: "Residual violations reported across runs",
		},
		[]string{"kind"}, // kind: bounds, collision
	)

	// Result cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pack_cache_hits_total",
			Help: "Total number of pack result cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pack_cache_misses_total",
			Help: "Total number of pack result cache misses",
		},
	)
)
