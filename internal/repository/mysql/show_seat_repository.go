package mysql

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

const showSeatColumns = "showtime_id, label, seat_row, seat_col, seat_type, status, locked_by, locked_until, version, updated_at"

// ShowSeatRepo encapsulates database operations for show_seats.  Each
// transition is one conditional UPDATE whose WHERE clause restates the
// precondition of the matching model.ShowSeat method, so concurrent callers
// race on the row and exactly one of them wins.
type ShowSeatRepo struct{ x sqlx.ExtContext }

// CreateBulk inserts multiple show_seat records in one statement.
func (r *ShowSeatRepo) CreateBulk(ctx context.Context, seats []model.ShowSeat) error {
	if len(seats) == 0 {
		return nil
	}
	now := time.Now().UTC()
	var b strings.Builder
	b.WriteString("INSERT INTO show_seats (showtime_id, label, seat_row, seat_col, seat_type, status, version, updated_at) VALUES ")
	args := make([]any, 0, len(seats)*8)
	for i, s := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, 0, ?)")
		status := s.Status
		if status == "" {
			status = model.SeatAvailable
		}
		args = append(args, s.ShowtimeID, s.Label, s.Row, s.Col, s.Type, status, now)
	}
	_, err := r.x.ExecContext(ctx, b.String(), args...)
	return translate(err)
}

func (r *ShowSeatRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.ShowSeat, error) {
	out := []model.ShowSeat{}
	err := sqlx.SelectContext(ctx, r.x, &out,
		"SELECT "+showSeatColumns+" FROM show_seats WHERE showtime_id = ? ORDER BY seat_row, seat_col", showtimeID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ShowSeatRepo) Get(ctx context.Context, showtimeID uint64, label string) (*model.ShowSeat, error) {
	var s model.ShowSeat
	err := sqlx.GetContext(ctx, r.x, &s,
		"SELECT "+showSeatColumns+" FROM show_seats WHERE showtime_id = ? AND label = ?", showtimeID, label)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// cas runs a conditional update and maps "no row changed" to failure when
// the seat exists, or ErrNotFound when it does not.
func (r *ShowSeatRepo) cas(ctx context.Context, failure error, showtimeID uint64, label, q string, args ...any) error {
	res, err := r.x.ExecContext(ctx, q, args...)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists bool
	if err := sqlx.GetContext(ctx, r.x, &exists,
		"SELECT EXISTS(SELECT 1 FROM show_seats WHERE showtime_id = ? AND label = ?)", showtimeID, label); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return failure
}

// Lock succeeds on AVAILABLE seats and on LOCKED seats whose TTL passed.
func (r *ShowSeatRepo) Lock(ctx context.Context, showtimeID uint64, label string, holder uint64, now, until time.Time) error {
	return r.cas(ctx, repository.ErrSeatUnavailable, showtimeID, label,
		`UPDATE show_seats
		 SET status = ?, locked_by = ?, locked_until = ?, version = version + 1, updated_at = ?
		 WHERE showtime_id = ? AND label = ?
		   AND (status = ? OR (status = ? AND locked_until <= ?))`,
		model.SeatLocked, holder, until.UTC(), now.UTC(),
		showtimeID, label,
		model.SeatAvailable, model.SeatLocked, now.UTC())
}

// Confirm promotes holder's live lock to BOOKED.  locked_by is kept as the
// owner of the booked seat.
func (r *ShowSeatRepo) Confirm(ctx context.Context, showtimeID uint64, label string, holder uint64, now time.Time) error {
	return r.cas(ctx, repository.ErrSeatNotLocked, showtimeID, label,
		`UPDATE show_seats
		 SET status = ?, locked_until = NULL, version = version + 1, updated_at = ?
		 WHERE showtime_id = ? AND label = ?
		   AND status = ? AND locked_by = ? AND locked_until > ?`,
		model.SeatBooked, now.UTC(),
		showtimeID, label,
		model.SeatLocked, holder, now.UTC())
}

func (r *ShowSeatRepo) Unlock(ctx context.Context, showtimeID uint64, label string, holder uint64, now time.Time) error {
	return r.cas(ctx, repository.ErrSeatNotLocked, showtimeID, label,
		`UPDATE show_seats
		 SET status = ?, locked_by = NULL, locked_until = NULL, version = version + 1, updated_at = ?
		 WHERE showtime_id = ? AND label = ?
		   AND status = ? AND locked_until > ? AND (? = 0 OR locked_by = ?)`,
		model.SeatAvailable, now.UTC(),
		showtimeID, label,
		model.SeatLocked, now.UTC(), holder, holder)
}

func (r *ShowSeatRepo) Release(ctx context.Context, showtimeID uint64, labels []string, now time.Time) (int, error) {
	if len(labels) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(
		`UPDATE show_seats
		 SET status = ?, locked_by = NULL, locked_until = NULL, version = version + 1, updated_at = ?
		 WHERE showtime_id = ? AND status = ? AND label IN (?)`,
		model.SeatAvailable, now.UTC(), showtimeID, model.SeatBooked, labels)
	if err != nil {
		return 0, err
	}
	return affected(r.x.ExecContext(ctx, r.x.Rebind(q), args...))
}

func (r *ShowSeatRepo) ReleaseLocks(ctx context.Context, showtimeID uint64, now time.Time) (int, error) {
	return affected(r.x.ExecContext(ctx,
		`UPDATE show_seats
		 SET status = ?, locked_by = NULL, locked_until = NULL, version = version + 1, updated_at = ?
		 WHERE showtime_id = ? AND status = ?`,
		model.SeatAvailable, now.UTC(), showtimeID, model.SeatLocked))
}

func (r *ShowSeatRepo) ClearExpired(ctx context.Context, now time.Time) (int, error) {
	return affected(r.x.ExecContext(ctx,
		`UPDATE show_seats
		 SET status = ?, locked_by = NULL, locked_until = NULL, version = version + 1, updated_at = ?
		 WHERE status = ? AND locked_until <= ?`,
		model.SeatAvailable, now.UTC(), model.SeatLocked, now.UTC()))
}

func (r *ShowSeatRepo) LockedBy(ctx context.Context, showtimeID, holder uint64, now time.Time) ([]string, error) {
	out := []string{}
	err := sqlx.SelectContext(ctx, r.x, &out,
		`SELECT label FROM show_seats
		 WHERE showtime_id = ? AND status = ? AND locked_by = ? AND locked_until > ?
		 ORDER BY seat_row, seat_col`,
		showtimeID, model.SeatLocked, holder, now.UTC())
	if err != nil {
		return nil, err
	}
	return out, nil
}
