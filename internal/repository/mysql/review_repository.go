package mysql

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

const reviewSelect = `SELECT r.id, r.movie_id, r.user_id, COALESCE(u.name, '') AS user_name,
	r.rating, r.comment, r.created_at
	FROM reviews r
	LEFT JOIN users u ON u.id = r.user_id`

// ReviewRepo persists reviews.  The (movie_id, user_id) unique key turns a
// second review of the same movie into repository.ErrConflict.
type ReviewRepo struct{ x sqlx.ExtContext }

func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	now := time.Now().UTC()
	id, err := insertID(r.x.ExecContext(ctx,
		"INSERT INTO reviews (movie_id, user_id, rating, comment, created_at) VALUES (?,?,?,?,?)",
		rv.MovieID, rv.UserID, rv.Rating, rv.Comment, now))
	if err != nil {
		return err
	}
	rv.ID, rv.CreatedAt = id, now
	_ = sqlx.GetContext(ctx, r.x, &rv.UserName, "SELECT name FROM users WHERE id = ?", rv.UserID)
	return nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (*model.Review, error) {
	var rv model.Review
	if err := sqlx.GetContext(ctx, r.x, &rv, reviewSelect+" WHERE r.id = ?", id); err != nil {
		return nil, translate(err)
	}
	return &rv, nil
}

func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	out := []model.Review{}
	if err := sqlx.SelectContext(ctx, r.x, &out, reviewSelect+" WHERE r.movie_id = ? ORDER BY r.id DESC", movieID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReviewRepo) List(ctx context.Context, limit, offset int) ([]model.Review, error) {
	q, args := limitClause(reviewSelect+" ORDER BY r.id DESC", nil, limit, offset)
	out := []model.Review{}
	if err := sqlx.SelectContext(ctx, r.x, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.x.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id))
}
