// Package metrics holds the prometheus collectors of the dispatch core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	optimizationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_optimization_runs_total",
			Help: "Route optimization runs by outcome.",
		},
		[]string{"outcome"},
	)
	optimizationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_optimization_duration_seconds",
			Help:    "Duration of route optimization runs.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	unassignedDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_unassigned_deliveries_total",
			Help: "Pending deliveries left without a route by optimization runs.",
		},
	)
	oracleFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_oracle_fallbacks_total",
			Help: "Cost matrix requests answered by the straight-line fallback.",
		},
	)
	routeTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_route_transitions_total",
			Help: "Route status changes by target status.",
		},
		[]string{"status"},
	)
	deliveryTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_delivery_transitions_total",
			Help: "Delivery status changes by target status.",
		},
		[]string{"status"},
	)
	cashDiscrepancies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_cash_discrepancy_records",
			Help: "Cash collection records in discrepancy at the last audit.",
		},
	)
	conflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_conflict_retries_total",
			Help: "Read-modify-write operations retried after a concurrent modification.",
		},
	)
)

func ObserveOptimization(outcome string, started time.Time, unassigned int) {
	optimizationRuns.WithLabelValues(outcome).Inc()
	optimizationDuration.Observe(time.Since(started).Seconds())
	unassignedDeliveries.Add(float64(unassigned))
}

func OracleFallback() {
	oracleFallbacks.Inc()
}

func RouteTransition(status string) {
	routeTransitions.WithLabelValues(status).Inc()
}

func DeliveryTransition(status string) {
	deliveryTransitions.WithLabelValues(status).Inc()
}

func SetCashDiscrepancies(n int) {
	cashDiscrepancies.Set(float64(n))
}

func ConflictRetry() {
	conflictRetries.Inc()
}
