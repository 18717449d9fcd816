// Package metrics holds the Prometheus collectors exported by nexusdesk.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ControllerOps counts state controller calls by operation and outcome
	// (ok, not_found, error).
	ControllerOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexusdesk",
			Subsystem: "controller",
			Name:      "operations_total",
			Help:      "Total state controller operations",
		},
		[]string{"op", "outcome"},
	)

	// Hydrated is 1 once the controller has loaded its state.
	Hydrated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nexusdesk",
			Subsystem: "controller",
			Name:      "hydrated",
			Help:      "Whether the controller has completed hydration",
		},
	)

	// HydrationFailures counts hydration attempts that failed and will be
	// retried on the next call.
	HydrationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nexusdesk",
			Subsystem: "controller",
			Name:      "hydration_failures_total",
			Help:      "Total failed hydration attempts",
		},
	)

	// StoreDuration observes durable store latency by operation.
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexusdesk",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Durable store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"op"},
	)

	// StoreErrors counts failed durable store operations.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexusdesk",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Total failed durable store operations",
		},
		[]string{"op"},
	)

	// TicketEvents counts ticket events handed to the event producer.
	TicketEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexusdesk",
			Subsystem: "events",
			Name:      "ticket_events_total",
			Help:      "Total ticket events by type and delivery result",
		},
		[]string{"event", "result"},
	)

	// Classifications counts analysis agent calls by result.
	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexusdesk",
			Subsystem: "analysis",
			Name:      "classifications_total",
			Help:      "Total ticket classifications by result",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
