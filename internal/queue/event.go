// Package queue defines the order events exchanged over RabbitMQ together
// with the publisher used by the services and the notification consumer.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys on the topic exchange.
const (
	RoutingOrderConfirmed = "order.confirmed"
	RoutingOrderCancelled = "order.cancelled"
)

// OrderEvent is published after an order is committed or cancelled.  It
// carries enough information for downstream consumers to notify the
// customer without querying the primary database.
type OrderEvent struct {
	EventID       string           `json:"event_id"`
	Type          string           `json:"type"`
	OrderID       uint64           `json:"order_id"`
	OrderCode     string           `json:"order_code"`
	UserID        uint64           `json:"user_id"`
	UserEmail     string           `json:"user_email"`
	TotalCents    int64            `json:"total_cents"`
	Currency      string           `json:"currency"`
	Bookings      []BookingSummary `json:"bookings"`
	Snacks        []SnackLine      `json:"snacks"`
	OccurredAt    time.Time        `json:"occurred_at"`
	CorrelationID string           `json:"correlation_id,omitempty"`
}

// BookingSummary describes the tickets of one showtime in an order.
type BookingSummary struct {
	ShowtimeID uint64    `json:"showtime_id"`
	MovieTitle string    `json:"movie_title"`
	CinemaName string    `json:"cinema_name"`
	HallName   string    `json:"hall_name"`
	StartsAt   time.Time `json:"starts_at"`
	Seats      []string  `json:"seats"`
	Adults     int       `json:"adults"`
	Children   int       `json:"children"`
}

// SnackLine is one concession line of an order.
type SnackLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// NewOrderEvent stamps a fresh event id and time on an event of the given type.
func NewOrderEvent(routingKey string, at time.Time) OrderEvent {
	return OrderEvent{
		EventID:    uuid.NewString(),
		Type:       routingKey,
		OccurredAt: at.UTC(),
		Bookings:   []BookingSummary{},
		Snacks:     []SnackLine{},
	}
}
