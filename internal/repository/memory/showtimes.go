package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

type showtimeRepo struct{ s *Store }

func (r showtimeRepo) Create(_ context.Context, st *model.Showtime) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.halls[st.HallID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := d.movies[st.MovieID]; !ok {
		return repository.ErrNotFound
	}
	ts := now()
	st.ID = d.next("showtimes")
	st.CreatedAt, st.UpdatedAt = ts, ts
	stored := *st
	stored.BookedSeats = nil
	d.showtimes[st.ID] = stored
	return nil
}

func (r showtimeRepo) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
	defer r.s.lock()()
	d := r.s.d()
	st, ok := d.showtimes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	st.BookedSeats = []string{}
	for _, seat := range sortedSeats(d, id) {
		if seat.Status == model.SeatBooked {
			st.BookedSeats = append(st.BookedSeats, seat.Label)
		}
	}
	return &st, nil
}

func (r showtimeRepo) List(_ context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Showtime{}
	for _, st := range d.showtimes {
		if f.MovieID != 0 && st.MovieID != f.MovieID {
			continue
		}
		if f.CinemaID != 0 && st.CinemaID != f.CinemaID {
			continue
		}
		if f.HallID != 0 && st.HallID != f.HallID {
			continue
		}
		if f.Status != "" && st.Status != f.Status {
			continue
		}
		if f.Day != nil && (st.StartsAt.Before(*f.Day) || !st.StartsAt.Before(f.Day.Add(24*time.Hour))) {
			continue
		}
		if f.After != nil && !st.StartsAt.After(*f.After) {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r showtimeRepo) Update(_ context.Context, st *model.Showtime) error {
	defer r.s.lock()()
	d := r.s.d()
	cur, ok := d.showtimes[st.ID]
	if !ok {
		return repository.ErrNotFound
	}
	st.CreatedAt = cur.CreatedAt
	st.UpdatedAt = now()
	stored := *st
	stored.BookedSeats = nil
	d.showtimes[st.ID] = stored
	return nil
}

func (r showtimeRepo) Delete(_ context.Context, id uint64) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.showtimes[id]; !ok {
		return repository.ErrNotFound
	}
	// cancelled bookings count too: order history keeps its showtime
	for _, b := range d.bookings {
		if b.ShowtimeID == id {
			return repository.ErrConflict
		}
	}
	for k := range d.seats {
		if k.showtimeID == id {
			delete(d.seats, k)
		}
	}
	delete(d.showtimes, id)
	return nil
}

func (r showtimeRepo) FindOverlapping(_ context.Context, hallID uint64, start, end time.Time, excludeID uint64) ([]model.Showtime, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Showtime{}
	for _, id := range sortedKeys(d.showtimes) {
		st := d.showtimes[id]
		if st.HallID == hallID && st.ID != excludeID && st.Overlaps(start, end) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r showtimeRepo) AdjustAvailable(_ context.Context, id uint64, delta int) error {
	defer r.s.lock()()
	d := r.s.d()
	st, ok := d.showtimes[id]
	if !ok {
		return repository.ErrNotFound
	}
	n := st.SeatsAvailable + delta
	if n < 0 || n > st.TotalSeats {
		return repository.ErrConflict
	}
	st.SeatsAvailable = n
	st.UpdatedAt = now()
	d.showtimes[id] = st
	return nil
}

type seatRepo struct{ s *Store }

func sortedSeats(d *data, showtimeID uint64) []model.ShowSeat {
	out := []model.ShowSeat{}
	for k, v := range d.seats {
		if k.showtimeID == showtimeID {
			out = append(out, copySeat(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func (r seatRepo) CreateBulk(_ context.Context, seats []model.ShowSeat) error {
	defer r.s.lock()()
	d := r.s.d()
	for _, seat := range seats {
		if _, ok := d.seats[seatKey{seat.ShowtimeID, seat.Label}]; ok {
			return repository.ErrConflict
		}
	}
	ts := now()
	for _, seat := range seats {
		seat.UpdatedAt = ts
		if seat.Status == "" {
			seat.Status = model.SeatAvailable
		}
		d.seats[seatKey{seat.ShowtimeID, seat.Label}] = copySeat(seat)
	}
	return nil
}

func (r seatRepo) ListByShowtime(_ context.Context, showtimeID uint64) ([]model.ShowSeat, error) {
	defer r.s.lock()()
	return sortedSeats(r.s.d(), showtimeID), nil
}

func (r seatRepo) Get(_ context.Context, showtimeID uint64, label string) (*model.ShowSeat, error) {
	defer r.s.lock()()
	seat, ok := r.s.d().seats[seatKey{showtimeID, label}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	seat = copySeat(seat)
	return &seat, nil
}

// transition applies fn to a copy of the seat and stores it only on success.
func (r seatRepo) transition(showtimeID uint64, label string, fn func(*model.ShowSeat) error) error {
	defer r.s.lock()()
	d := r.s.d()
	k := seatKey{showtimeID, label}
	seat, ok := d.seats[k]
	if !ok {
		return repository.ErrNotFound
	}
	seat = copySeat(seat)
	if err := fn(&seat); err != nil {
		return err
	}
	d.seats[k] = seat
	return nil
}

func (r seatRepo) Lock(_ context.Context, showtimeID uint64, label string, holder uint64, now, until time.Time) error {
	return r.transition(showtimeID, label, func(s *model.ShowSeat) error {
		return s.Lock(holder, now, until.Sub(now))
	})
}

func (r seatRepo) Confirm(_ context.Context, showtimeID uint64, label string, holder uint64, now time.Time) error {
	return r.transition(showtimeID, label, func(s *model.ShowSeat) error {
		return s.Confirm(holder, now)
	})
}

func (r seatRepo) Unlock(_ context.Context, showtimeID uint64, label string, holder uint64, now time.Time) error {
	return r.transition(showtimeID, label, func(s *model.ShowSeat) error {
		return s.Unlock(holder, now)
	})
}

func (r seatRepo) Release(_ context.Context, showtimeID uint64, labels []string, now time.Time) (int, error) {
	defer r.s.lock()()
	d := r.s.d()
	n := 0
	for _, label := range labels {
		k := seatKey{showtimeID, label}
		seat, ok := d.seats[k]
		if !ok {
			continue
		}
		seat = copySeat(seat)
		if seat.Release(now) == nil {
			d.seats[k] = seat
			n++
		}
	}
	return n, nil
}

func (r seatRepo) ReleaseLocks(_ context.Context, showtimeID uint64, now time.Time) (int, error) {
	defer r.s.lock()()
	d := r.s.d()
	n := 0
	for k, seat := range d.seats {
		if k.showtimeID != showtimeID || seat.Status != model.SeatLocked {
			continue
		}
		seat = copySeat(seat)
		if !seat.Expire(now) {
			_ = seat.Unlock(0, now)
		}
		d.seats[k] = seat
		n++
	}
	return n, nil
}

func (r seatRepo) ClearExpired(_ context.Context, now time.Time) (int, error) {
	defer r.s.lock()()
	d := r.s.d()
	n := 0
	for k, seat := range d.seats {
		seat = copySeat(seat)
		if seat.Expire(now) {
			d.seats[k] = seat
			n++
		}
	}
	return n, nil
}

func (r seatRepo) LockedBy(_ context.Context, showtimeID, holder uint64, now time.Time) ([]string, error) {
	defer r.s.lock()()
	out := []string{}
	for _, seat := range sortedSeats(r.s.d(), showtimeID) {
		if seat.LockedByUser(holder, now) {
			out = append(out, seat.Label)
		}
	}
	return out, nil
}
