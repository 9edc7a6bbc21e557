package memory

import (
	"context"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

type reviewRepo struct{ s *Store }

func (r reviewRepo) withName(d *data, rv model.Review) model.Review {
	if u, ok := d.users[rv.UserID]; ok {
		rv.UserName = u.Name
	}
	return rv
}

func (r reviewRepo) Create(_ context.Context, rv *model.Review) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.movies[rv.MovieID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range d.reviews {
		if existing.MovieID == rv.MovieID && existing.UserID == rv.UserID {
			return repository.ErrConflict
		}
	}
	rv.ID = d.next("reviews")
	rv.CreatedAt = now()
	*rv = r.withName(d, *rv)
	d.reviews[rv.ID] = *rv
	return nil
}

func (r reviewRepo) GetByID(_ context.Context, id uint64) (*model.Review, error) {
	defer r.s.lock()()
	d := r.s.d()
	rv, ok := d.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rv = r.withName(d, rv)
	return &rv, nil
}

func (r reviewRepo) ListByMovie(_ context.Context, movieID uint64) ([]model.Review, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Review{}
	for _, id := range newestFirst(sortedKeys(d.reviews)) {
		if rv := d.reviews[id]; rv.MovieID == movieID {
			out = append(out, r.withName(d, rv))
		}
	}
	return out, nil
}

func (r reviewRepo) List(_ context.Context, limit, offset int) ([]model.Review, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Review{}
	for _, id := range newestFirst(sortedKeys(d.reviews)) {
		out = append(out, r.withName(d, d.reviews[id]))
	}
	return page(out, limit, offset), nil
}

func (r reviewRepo) Delete(_ context.Context, id uint64) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.reviews, id)
	return nil
}
