package mysql

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

const showtimeColumns = `id, movie_id, hall_id, cinema_id, starts_at, ends_at, price_cents,
	total_seats, seats_available, status, created_at, updated_at`

// ShowtimeRepo persists scheduled screenings.
type ShowtimeRepo struct{ x sqlx.ExtContext }

func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	now := time.Now().UTC()
	id, err := insertID(r.x.ExecContext(ctx,
		`INSERT INTO showtimes (movie_id, hall_id, cinema_id, starts_at, ends_at, price_cents,
		 total_seats, seats_available, status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		s.MovieID, s.HallID, s.CinemaID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.PriceCents,
		s.TotalSeats, s.SeatsAvailable, s.Status, now, now))
	if err != nil {
		return err
	}
	s.ID, s.CreatedAt, s.UpdatedAt = id, now, now
	return nil
}

// GetByID loads a showtime together with its booked seat labels.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	var s model.Showtime
	if err := sqlx.GetContext(ctx, r.x, &s, "SELECT "+showtimeColumns+" FROM showtimes WHERE id = ?", id); err != nil {
		return nil, translate(err)
	}
	s.BookedSeats = []string{}
	if err := sqlx.SelectContext(ctx, r.x, &s.BookedSeats,
		"SELECT label FROM show_seats WHERE showtime_id = ? AND status = ? ORDER BY seat_row, seat_col",
		id, model.SeatBooked); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ShowtimeRepo) List(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	cond, args := showtimeWhere(f)
	q, args := limitClause("SELECT "+showtimeColumns+" FROM showtimes WHERE "+cond+" ORDER BY starts_at, id", args, f.Limit, f.Offset)
	out := []model.Showtime{}
	if err := sqlx.SelectContext(ctx, r.x, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ShowtimeRepo) Update(ctx context.Context, s *model.Showtime) error {
	s.UpdatedAt = time.Now().UTC()
	return mustAffect(r.x.ExecContext(ctx,
		`UPDATE showtimes SET movie_id=?, starts_at=?, ends_at=?, price_cents=?, status=?, updated_at=?
		 WHERE id=?`,
		s.MovieID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.PriceCents, s.Status, s.UpdatedAt, s.ID))
}

// Delete removes a showtime and its seat states.  Any booking row, cancelled
// or not, keeps the showtime alive through the bookings foreign key.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.x.ExecContext(ctx, "DELETE FROM showtimes WHERE id = ?", id))
}

func (r *ShowtimeRepo) FindOverlapping(ctx context.Context, hallID uint64, start, end time.Time, excludeID uint64) ([]model.Showtime, error) {
	out := []model.Showtime{}
	err := sqlx.SelectContext(ctx, r.x, &out,
		`SELECT `+showtimeColumns+` FROM showtimes
		 WHERE hall_id = ? AND id <> ? AND status <> ? AND starts_at < ? AND ends_at > ?
		 ORDER BY starts_at`,
		hallID, excludeID, model.ShowtimeCancelled, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AdjustAvailable moves seats_available by delta, refusing to leave the
// [0, total_seats] range.
func (r *ShowtimeRepo) AdjustAvailable(ctx context.Context, id uint64, delta int) error {
	res, err := r.x.ExecContext(ctx,
		`UPDATE showtimes SET seats_available = seats_available + ?, updated_at = ?
		 WHERE id = ? AND seats_available + ? BETWEEN 0 AND total_seats`,
		delta, time.Now().UTC(), id, delta)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := sqlx.GetContext(ctx, r.x, &exists, "SELECT EXISTS(SELECT 1 FROM showtimes WHERE id = ?)", id); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}
