// Package metrics exposes Prometheus counters for the booking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckoutsTotal counts checkout attempts by outcome:
	// "converted", "conflict", "capacity_race", "payment_failed",
	// "invalid".
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_checkouts_total",
		Help: "Basket checkout attempts by outcome",
	}, []string{"outcome"})

	// TransitionsTotal counts reservation state transitions by target
	// status.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reservation_transitions_total",
		Help: "Reservation state transitions by new status",
	}, []string{"status"})

	// ExpiredTotal counts reservations released by the pending-TTL
	// sweeper.
	ExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_reservations_expired_total",
		Help: "Pending reservations cancelled by the TTL sweeper",
	})

	// SettlementRunsTotal counts settlement computations by outcome.
	SettlementRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_settlement_runs_total",
		Help: "Settlement period computations by outcome",
	}, []string{"outcome"})

	// AvailabilityChecksTotal counts availability queries by scope
	// ("single" or "city").
	AvailabilityChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_availability_checks_total",
		Help: "Availability checks by scope",
	}, []string{"scope"})
)
