package memory

import (
	"context"
	"strings"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

type cinemaRepo struct{ s *Store }

func (r cinemaRepo) Create(_ context.Context, c *model.Cinema) error {
	defer r.s.lock()()
	d := r.s.d()
	ts := now()
	c.ID = d.next("cinemas")
	c.CreatedAt, c.UpdatedAt = ts, ts
	d.cinemas[c.ID] = *c
	return nil
}

func (r cinemaRepo) GetByID(_ context.Context, id uint64) (*model.Cinema, error) {
	defer r.s.lock()()
	c, ok := r.s.d().cinemas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r cinemaRepo) List(_ context.Context) ([]model.Cinema, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := make([]model.Cinema, 0, len(d.cinemas))
	for _, id := range sortedKeys(d.cinemas) {
		out = append(out, d.cinemas[id])
	}
	return out, nil
}

func (r cinemaRepo) Update(_ context.Context, c *model.Cinema) error {
	defer r.s.lock()()
	d := r.s.d()
	cur, ok := d.cinemas[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = now()
	d.cinemas[c.ID] = *c
	return nil
}

func (r cinemaRepo) Delete(_ context.Context, id uint64) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.cinemas[id]; !ok {
		return repository.ErrNotFound
	}
	for _, h := range d.halls {
		if h.CinemaID == id {
			return repository.ErrConflict
		}
	}
	delete(d.cinemas, id)
	return nil
}

type hallRepo struct{ s *Store }

func (r hallRepo) Create(_ context.Context, h *model.Hall) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.cinemas[h.CinemaID]; !ok {
		return repository.ErrNotFound
	}
	ts := now()
	h.ID = d.next("halls")
	h.CreatedAt, h.UpdatedAt = ts, ts
	stored := *h
	stored.Layout = h.Layout.Clone()
	d.halls[h.ID] = stored
	return nil
}

func (r hallRepo) GetByID(_ context.Context, id uint64) (*model.Hall, error) {
	defer r.s.lock()()
	h, ok := r.s.d().halls[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	h.Layout = h.Layout.Clone()
	return &h, nil
}

func (r hallRepo) List(_ context.Context, cinemaID uint64) ([]model.Hall, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Hall{}
	for _, id := range sortedKeys(d.halls) {
		h := d.halls[id]
		if cinemaID != 0 && h.CinemaID != cinemaID {
			continue
		}
		h.Layout = h.Layout.Clone()
		out = append(out, h)
	}
	return out, nil
}

func (r hallRepo) Update(_ context.Context, h *model.Hall) error {
	defer r.s.lock()()
	d := r.s.d()
	cur, ok := d.halls[h.ID]
	if !ok {
		return repository.ErrNotFound
	}
	h.CreatedAt = cur.CreatedAt
	h.UpdatedAt = now()
	stored := *h
	stored.Layout = h.Layout.Clone()
	d.halls[h.ID] = stored
	return nil
}

func (r hallRepo) Delete(_ context.Context, id uint64) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.halls[id]; !ok {
		return repository.ErrNotFound
	}
	for _, st := range d.showtimes {
		if st.HallID == id {
			return repository.ErrConflict
		}
	}
	delete(d.halls, id)
	return nil
}

type movieRepo struct{ s *Store }

// withRating fills the computed rating fields from the stored reviews.
func withRating(d *data, m model.Movie) model.Movie {
	var sum, n int
	for _, rv := range d.reviews {
		if rv.MovieID == m.ID {
			sum += rv.Rating
			n++
		}
	}
	m.ReviewCount = n
	m.AverageRating = 0
	if n > 0 {
		m.AverageRating = float64(sum) / float64(n)
	}
	return m
}

func (r movieRepo) Create(_ context.Context, m *model.Movie) error {
	defer r.s.lock()()
	d := r.s.d()
	ts := now()
	m.ID = d.next("movies")
	m.CreatedAt, m.UpdatedAt = ts, ts
	m.AverageRating, m.ReviewCount = 0, 0
	d.movies[m.ID] = *m
	return nil
}

func (r movieRepo) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	defer r.s.lock()()
	d := r.s.d()
	m, ok := d.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m = withRating(d, m)
	return &m, nil
}

func (r movieRepo) List(_ context.Context, f model.MovieFilter) ([]model.Movie, error) {
	defer r.s.lock()()
	d := r.s.d()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := []model.Movie{}
	for _, id := range sortedKeys(d.movies) {
		m := d.movies[id]
		if q != "" && !strings.Contains(strings.ToLower(m.Title), q) {
			continue
		}
		if f.Genre != "" && !strings.EqualFold(m.Genre, f.Genre) {
			continue
		}
		out = append(out, withRating(d, m))
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r movieRepo) Update(_ context.Context, m *model.Movie) error {
	defer r.s.lock()()
	d := r.s.d()
	cur, ok := d.movies[m.ID]
	if !ok {
		return repository.ErrNotFound
	}
	m.CreatedAt = cur.CreatedAt
	m.UpdatedAt = now()
	d.movies[m.ID] = *m
	*m = withRating(d, *m)
	return nil
}

func (r movieRepo) Delete(_ context.Context, id uint64) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.movies[id]; !ok {
		return repository.ErrNotFound
	}
	for _, st := range d.showtimes {
		if st.MovieID == id {
			return repository.ErrConflict
		}
	}
	delete(d.movies, id)
	for rid, rv := range d.reviews {
		if rv.MovieID == id {
			delete(d.reviews, rid)
		}
	}
	return nil
}

type snackRepo struct{ s *Store }

func (r snackRepo) Create(_ context.Context, sn *model.Snack) error {
	defer r.s.lock()()
	d := r.s.d()
	ts := now()
	sn.ID = d.next("snacks")
	sn.CreatedAt, sn.UpdatedAt = ts, ts
	d.snacks[sn.ID] = *sn
	return nil
}

func (r snackRepo) GetByID(_ context.Context, id uint64) (*model.Snack, error) {
	defer r.s.lock()()
	sn, ok := r.s.d().snacks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sn, nil
}

func (r snackRepo) GetByIDs(_ context.Context, ids []uint64) ([]model.Snack, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Snack{}
	seen := map[uint64]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if sn, ok := d.snacks[id]; ok {
			out = append(out, sn)
		}
	}
	return out, nil
}

func (r snackRepo) List(_ context.Context, onlyAvailable bool) ([]model.Snack, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Snack{}
	for _, id := range sortedKeys(d.snacks) {
		sn := d.snacks[id]
		if onlyAvailable && !sn.IsAvailable {
			continue
		}
		out = append(out, sn)
	}
	return out, nil
}

func (r snackRepo) Update(_ context.Context, sn *model.Snack) error {
	defer r.s.lock()()
	d := r.s.d()
	cur, ok := d.snacks[sn.ID]
	if !ok {
		return repository.ErrNotFound
	}
	sn.CreatedAt = cur.CreatedAt
	sn.UpdatedAt = now()
	d.snacks[sn.ID] = *sn
	return nil
}

func (r snackRepo) Delete(_ context.Context, id uint64) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.snacks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.snacks, id)
	return nil
}
