package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// ShowtimeService schedules screenings and materialises their seat states.
type ShowtimeService struct {
	store repository.Store
	now   clock
}

func NewShowtimeService(store repository.Store) *ShowtimeService {
	return &ShowtimeService{store: store, now: utcNow}
}

// ShowtimeInput creates a showtime.
type ShowtimeInput struct {
	MovieID    uint64
	HallID     uint64
	StartsAt   time.Time
	PriceCents int64
}

// ShowtimeUpdate changes a showtime.  Nil fields are left untouched.
type ShowtimeUpdate struct {
	StartsAt   *time.Time
	PriceCents *int64
	Status     *string
}

// Create schedules a movie in a hall.  The end time follows from the movie
// duration; a clash with another non-cancelled showtime of the hall returns
// ErrConflict.  One AVAILABLE seat state is created per active hall seat.
func (s *ShowtimeService) Create(ctx context.Context, in ShowtimeInput) (*model.Showtime, error) {
	if in.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if in.StartsAt.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", ErrValidation)
	}
	var st *model.Showtime
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		movie, err := tx.Movies().GetByID(ctx, in.MovieID)
		if err != nil {
			return fmt.Errorf("movie %d: %w", in.MovieID, err)
		}
		hall, err := tx.Halls().GetByID(ctx, in.HallID)
		if err != nil {
			return fmt.Errorf("hall %d: %w", in.HallID, err)
		}
		if !hall.IsActive {
			return fmt.Errorf("%w: hall %d is not active", ErrValidation, hall.ID)
		}
		start := in.StartsAt.UTC()
		end := start.Add(movie.Duration())
		if err := checkOverlap(ctx, tx, hall.ID, start, end, 0); err != nil {
			return err
		}

		seats := hall.Layout.ActiveSeats()
		st = &model.Showtime{
			MovieID:        movie.ID,
			HallID:         hall.ID,
			CinemaID:       hall.CinemaID,
			StartsAt:       start,
			EndsAt:         end,
			PriceCents:     in.PriceCents,
			TotalSeats:     len(seats),
			SeatsAvailable: len(seats),
			Status:         model.ShowtimeScheduled,
		}
		if err := tx.Showtimes().Create(ctx, st); err != nil {
			return fmt.Errorf("create showtime: %w", err)
		}
		states := make([]model.ShowSeat, 0, len(seats))
		for _, ls := range seats {
			states = append(states, model.ShowSeat{
				ShowtimeID: st.ID,
				Label:      ls.Label,
				Row:        ls.Row,
				Col:        ls.Col,
				Type:       ls.Type,
				Status:     model.SeatAvailable,
				UpdatedAt:  s.now(),
			})
		}
		if err := tx.Seats().CreateBulk(ctx, states); err != nil {
			return fmt.Errorf("create seat states: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).WithField("showtime_id", st.ID).Info("showtime scheduled")
	return s.store.Showtimes().GetByID(ctx, st.ID)
}

func checkOverlap(ctx context.Context, tx repository.Store, hallID uint64, start, end time.Time, exclude uint64) error {
	clash, err := tx.Showtimes().FindOverlapping(ctx, hallID, start, end, exclude)
	if err != nil {
		return fmt.Errorf("find overlapping: %w", err)
	}
	if len(clash) > 0 {
		return fmt.Errorf("%w: hall is busy with showtime %d", repository.ErrConflict, clash[0].ID)
	}
	return nil
}

// Update moves, reprices or changes the status of a showtime.  Only
// SCHEDULED showtimes can change.  Cancelling requires that no active
// bookings remain and releases every seat lock.
func (s *ShowtimeService) Update(ctx context.Context, id uint64, in ShowtimeUpdate) (*model.Showtime, error) {
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		st, err := tx.Showtimes().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if st.Status != model.ShowtimeScheduled {
			return fmt.Errorf("%w: showtime is %s", repository.ErrConflict, st.Status)
		}
		if in.PriceCents != nil {
			if *in.PriceCents <= 0 {
				return fmt.Errorf("%w: price must be positive", ErrValidation)
			}
			st.PriceCents = *in.PriceCents
		}
		if in.StartsAt != nil && !in.StartsAt.Equal(st.StartsAt) {
			movie, err := tx.Movies().GetByID(ctx, st.MovieID)
			if err != nil {
				return fmt.Errorf("movie %d: %w", st.MovieID, err)
			}
			st.StartsAt = in.StartsAt.UTC()
			st.EndsAt = st.StartsAt.Add(movie.Duration())
			if err := checkOverlap(ctx, tx, st.HallID, st.StartsAt, st.EndsAt, st.ID); err != nil {
				return err
			}
		}
		if in.Status != nil && *in.Status != st.Status {
			if !model.ValidShowtimeStatus(*in.Status) {
				return fmt.Errorf("%w: unknown status %q", ErrValidation, *in.Status)
			}
			if *in.Status == model.ShowtimeCancelled {
				active, err := tx.Orders().CountActiveBookings(ctx, st.ID)
				if err != nil {
					return fmt.Errorf("count bookings: %w", err)
				}
				if active > 0 {
					return fmt.Errorf("%w: showtime has %d active bookings", repository.ErrConflict, active)
				}
				if _, err := tx.Seats().ReleaseLocks(ctx, st.ID, s.now()); err != nil {
					return fmt.Errorf("release locks: %w", err)
				}
			}
			st.Status = *in.Status
		}
		return tx.Showtimes().Update(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Showtimes().GetByID(ctx, id)
}

func (s *ShowtimeService) Get(ctx context.Context, id uint64) (*model.Showtime, error) {
	return s.store.Showtimes().GetByID(ctx, id)
}

func (s *ShowtimeService) List(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	return s.store.Showtimes().List(ctx, f)
}

// Delete removes a showtime that was never booked.
func (s *ShowtimeService) Delete(ctx context.Context, id uint64) error {
	err := s.store.Showtimes().Delete(ctx, id)
	if errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("%w: showtime has bookings, cancel it instead", repository.ErrConflict)
	}
	return err
}

// SeatView is one seat of a seat map as seen by the viewer.
type SeatView struct {
	Label       string     `json:"label"`
	Row         int        `json:"row"`
	Col         int        `json:"col"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	LockedByMe  bool       `json:"lockedByMe"`
	LockedUntil *time.Time `json:"lockedUntil,omitempty"`
}

// SeatMap is the seat picker payload of a showtime.
type SeatMap struct {
	ShowtimeID     uint64            `json:"showtimeId"`
	HallID         uint64            `json:"hallId"`
	Status         string            `json:"status"`
	StartsAt       time.Time         `json:"startsAt"`
	PriceCents     int64             `json:"priceCents"`
	ChildCents     int64             `json:"childPriceCents"`
	Rows           int               `json:"rows"`
	Cols           int               `json:"cols"`
	Partitions     []model.Partition `json:"partitions"`
	TotalSeats     int               `json:"totalSeats"`
	SeatsAvailable int               `json:"seatsAvailable"`
	Seats          []SeatView        `json:"seats"`
}

// SeatMap returns the seats of a showtime.  Expired locks are reported as
// AVAILABLE; only the viewer's own locks carry an expiry.
func (s *ShowtimeService) SeatMap(ctx context.Context, showtimeID, viewer uint64) (*SeatMap, error) {
	st, err := s.store.Showtimes().GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	hall, err := s.store.Halls().GetByID(ctx, st.HallID)
	if err != nil {
		return nil, fmt.Errorf("hall %d: %w", st.HallID, err)
	}
	seats, err := s.store.Seats().ListByShowtime(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}

	now := s.now()
	m := &SeatMap{
		ShowtimeID:     st.ID,
		HallID:         hall.ID,
		Status:         st.Status,
		StartsAt:       st.StartsAt,
		PriceCents:     st.PriceCents,
		ChildCents:     model.ChildPrice(st.PriceCents),
		Rows:           hall.Layout.Rows,
		Cols:           hall.Layout.Cols,
		Partitions:     append([]model.Partition{}, hall.Layout.Partitions...),
		TotalSeats:     st.TotalSeats,
		SeatsAvailable: st.SeatsAvailable,
		Seats:          make([]SeatView, 0, len(seats)),
	}
	for _, seat := range seats {
		v := SeatView{
			Label:  seat.Label,
			Row:    seat.Row,
			Col:    seat.Col,
			Type:   seat.Type,
			Status: seat.EffectiveStatus(now),
		}
		if viewer != 0 && seat.LockedByUser(viewer, now) {
			v.LockedByMe = true
			v.LockedUntil = seat.LockedUntil
		}
		m.Seats = append(m.Seats, v)
	}
	return m, nil
}
