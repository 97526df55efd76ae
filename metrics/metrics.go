// Package metrics holds the Prometheus collectors for the storefront.
//
// Collectors are registered on the Registerer passed to New so tests can use
// an isolated registry. The server registers on prometheus.DefaultRegisterer
// and exposes it on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// Upsert outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeConflict = "conflict"
)

// Metrics groups every collector.
type Metrics struct {
	// Labels: route (mux path template), method, status
	RequestsTotal *prometheus.CounterVec

	// Labels: route, method
	RequestDuration *prometheus.HistogramVec

	// Labels: kind (cart, wishlist), outcome (created, updated, conflict)
	LineUpserts *prometheus.CounterVec

	OrdersPlaced prometheus.Counter
}

// New creates and registers the collectors on reg.
// Registering twice on the same registry panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method"},
		),
		LineUpserts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "line_item_upserts_total",
				Help:      "Cart and wishlist upserts by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		OrdersPlaced: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_placed_total",
				Help:      "Orders created at checkout",
			},
		),
	}
}

// NewNop returns collectors bound to a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
