// Package metrics registers the domain-specific Prometheus collectors:
// redirect count, cap-reached count, enqueue-drop count, aggregator lag, and
// DLQ depth. HTTP-request-level metrics stay in transport/http/middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedirectsTotal counts every redirect response by outcome (resolved, unresolved).
	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortcut_redirects_total",
			Help: "Total redirect responses by outcome.",
		},
		[]string{"outcome"},
	)

	// FreeCapReachedTotal counts detached-task runs that stopped tracking
	// because the workspace's Free monthly cap was already reached.
	FreeCapReachedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortcut_free_cap_reached_total",
			Help: "Detached-task runs that hit the Free plan's monthly cap.",
		},
	)

	// EnqueueDropTotal counts detached-task runs where enriching, counting,
	// or enqueuing the click event failed and was swallowed.
	EnqueueDropTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortcut_enqueue_drop_total",
			Help: "Detached-task click events dropped before reaching the queue, by reason.",
		},
		[]string{"reason"},
	)

	// AggregatorLagSeconds reports how far behind the high-water mark is from
	// the current time after each Aggregator run.
	AggregatorLagSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortcut_aggregator_lag_seconds",
			Help: "Seconds between now and the Aggregator's high-water mark.",
		},
	)

	// DLQDepth reports the Click Log Writer's dead-letter stream length.
	DLQDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortcut_click_dlq_depth",
			Help: "Number of messages currently in the click-events dead letter stream.",
		},
	)
)
