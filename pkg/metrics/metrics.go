// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that
// can be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

//nolint: gochecknoglobals
var (
	// SolveRequests counts solve attempts by outcome ("ok", "reused" or the
	// semantic error kind).
	SolveRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solver",
		Name:      "solve_requests_total",
		Help:      "Number of solve requests by outcome.",
	}, []string{"outcome"})

	// SolveDuration observes end-to-end solve latency, including the model
	// call and rendering.
	SolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "solver",
		Name:      "solve_duration_seconds",
		Help:      "End-to-end solve latency in seconds.",
		Buckets:   DefaultBuckets,
	})

	// PagesRendered counts bitmap pages produced by the renderer.
	PagesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "solver",
		Name:      "pages_rendered_total",
		Help:      "Number of bitmap pages rendered.",
	})

	// PagesServed counts bitmap pages returned to devices.
	PagesServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "solver",
		Name:      "pages_served_total",
		Help:      "Number of bitmap pages served.",
	})
)
