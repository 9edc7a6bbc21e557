package model

import (
	"errors"
	"time"
)

// Seat states of a showtime.
const (
	SeatAvailable = "AVAILABLE"
	SeatLocked    = "LOCKED"
	SeatBooked    = "BOOKED"
)

// Transition errors returned by ShowSeat methods and by stores that encode
// the same rules in their conditional updates.
var (
	ErrSeatUnavailable = errors.New("seat is already locked or booked")
	ErrSeatNotLocked   = errors.New("seat is not locked by this user")
	ErrSeatNotBooked   = errors.New("seat is not booked")
)

// ShowSeat is the state of one hall seat for one showtime:
//
//	AVAILABLE --Lock--> LOCKED(holder, until) --Confirm--> BOOKED
//	LOCKED --Unlock / expiry--> AVAILABLE
//	BOOKED --Release--> AVAILABLE
//
// A LOCKED seat whose LockedUntil has passed behaves as AVAILABLE.
type ShowSeat struct {
	ShowtimeID  uint64     `db:"showtime_id" json:"showtimeId"`
	Label       string     `db:"label" json:"label"`
	Row         int        `db:"seat_row" json:"row"`
	Col         int        `db:"seat_col" json:"col"`
	Type        string     `db:"seat_type" json:"type"`
	Status      string     `db:"status" json:"status"`
	LockedBy    *uint64    `db:"locked_by" json:"-"`
	LockedUntil *time.Time `db:"locked_until" json:"lockedUntil,omitempty"`
	Version     uint32     `db:"version" json:"-"`
	UpdatedAt   time.Time  `db:"updated_at" json:"-"`
}

// LockExpired reports whether the seat holds a lock whose TTL has passed.
func (s ShowSeat) LockExpired(now time.Time) bool {
	return s.Status == SeatLocked && s.LockedUntil != nil && !now.Before(*s.LockedUntil)
}

// EffectiveStatus is the status observers should see at now.
func (s ShowSeat) EffectiveStatus(now time.Time) string {
	if s.LockExpired(now) {
		return SeatAvailable
	}
	return s.Status
}

// LockedByUser reports whether holder owns a live lock on the seat.
func (s ShowSeat) LockedByUser(holder uint64, now time.Time) bool {
	return s.Status == SeatLocked && !s.LockExpired(now) && s.LockedBy != nil && *s.LockedBy == holder
}

// Lock places a time-boxed hold for holder.  Any live lock, including one
// already owned by holder, makes the seat unavailable.
func (s *ShowSeat) Lock(holder uint64, now time.Time, ttl time.Duration) error {
	if s.EffectiveStatus(now) != SeatAvailable {
		return ErrSeatUnavailable
	}
	until := now.Add(ttl)
	h := holder
	s.Status = SeatLocked
	s.LockedBy = &h
	s.LockedUntil = &until
	s.Version++
	s.UpdatedAt = now
	return nil
}

// Confirm promotes holder's live lock to BOOKED.
func (s *ShowSeat) Confirm(holder uint64, now time.Time) error {
	if !s.LockedByUser(holder, now) {
		return ErrSeatNotLocked
	}
	s.Status = SeatBooked
	s.LockedUntil = nil
	s.Version++
	s.UpdatedAt = now
	return nil
}

// Unlock releases a live lock.  A zero holder releases any holder's lock.
func (s *ShowSeat) Unlock(holder uint64, now time.Time) error {
	if s.Status != SeatLocked || s.LockExpired(now) {
		return ErrSeatNotLocked
	}
	if holder != 0 && (s.LockedBy == nil || *s.LockedBy != holder) {
		return ErrSeatNotLocked
	}
	s.reset(now)
	return nil
}

// Expire clears a lock whose TTL has passed and reports whether it did.
func (s *ShowSeat) Expire(now time.Time) bool {
	if !s.LockExpired(now) {
		return false
	}
	s.reset(now)
	return true
}

// Release returns a booked seat to AVAILABLE after a cancellation.
func (s *ShowSeat) Release(now time.Time) error {
	if s.Status != SeatBooked {
		return ErrSeatNotBooked
	}
	s.reset(now)
	return nil
}

func (s *ShowSeat) reset(now time.Time) {
	s.Status = SeatAvailable
	s.LockedBy = nil
	s.LockedUntil = nil
	s.Version++
	s.UpdatedAt = now
}
