package model

import "time"

// Showtime statuses.
const (
	ShowtimeScheduled = "SCHEDULED"
	ShowtimeCancelled = "CANCELLED"
	ShowtimeCompleted = "COMPLETED"
)

// ValidShowtimeStatus reports whether s is a known showtime status.
func ValidShowtimeStatus(s string) bool {
	return s == ShowtimeScheduled || s == ShowtimeCancelled || s == ShowtimeCompleted
}

// Showtime represents a scheduled screening of a movie in a hall.
//
// SeatsAvailable always equals TotalSeats minus the number of BOOKED seat
// states of the showtime; the counter is adjusted in the same transaction as
// every BOOKED transition.  BookedSeats is filled from the seat states when a
// single showtime is loaded and is not a stored column.
type Showtime struct {
	ID             uint64    `db:"id" json:"id"`
	MovieID        uint64    `db:"movie_id" json:"movieId"`
	HallID         uint64    `db:"hall_id" json:"hallId"`
	CinemaID       uint64    `db:"cinema_id" json:"cinemaId"`
	StartsAt       time.Time `db:"starts_at" json:"startsAt"`
	EndsAt         time.Time `db:"ends_at" json:"endsAt"`
	PriceCents     int64     `db:"price_cents" json:"priceCents"`
	TotalSeats     int       `db:"total_seats" json:"totalSeats"`
	SeatsAvailable int       `db:"seats_available" json:"seatsAvailable"`
	Status         string    `db:"status" json:"status"`
	BookedSeats    []string  `db:"-" json:"bookedSeats"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Sellable reports whether seats of the showtime can still be locked or booked.
func (s Showtime) Sellable(now time.Time) bool {
	return s.Status == ShowtimeScheduled && now.Before(s.StartsAt)
}

// Overlaps reports whether the showtime occupies the hall during [start, end).
func (s Showtime) Overlaps(start, end time.Time) bool {
	return s.Status != ShowtimeCancelled && s.StartsAt.Before(end) && start.Before(s.EndsAt)
}

// ShowtimeFilter narrows showtime listings.  Zero values are ignored.
type ShowtimeFilter struct {
	MovieID  uint64
	CinemaID uint64
	HallID   uint64
	Day      *time.Time // UTC day [Day, Day+24h)
	After    *time.Time // only showtimes starting after this instant
	Status   string
	Limit    int
	Offset   int
}
