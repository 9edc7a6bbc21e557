package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SeatLocks counts lock attempts by result (locked, unavailable, not_found).
	SeatLocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "seat_locks_total",
			Help:      "Seat lock attempts by result",
		},
		[]string{"result"},
	)

	// SeatsExpired counts locks released because their TTL passed.
	SeatsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "seat_locks_expired_total",
			Help:      "Seat locks released after their TTL passed",
		},
	)

	// Orders counts order transitions by status.
	Orders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "orders_total",
			Help:      "Orders by resulting status",
		},
		[]string{"status"},
	)

	// EventsPublished counts domain events handed to the broker by outcome.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinema",
			Name:      "events_published_total",
			Help:      "Domain events published by routing key and outcome",
		},
		[]string{"routing_key", "outcome"},
	)

	// HTTPRequestDuration observes request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
