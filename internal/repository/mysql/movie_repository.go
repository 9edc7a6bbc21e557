package mysql

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// movieSelect joins reviews so every read carries the computed rating.
const movieSelect = `SELECT m.id, m.title, m.description, m.genre, m.duration_min, m.age_rating,
	m.release_date, m.poster_url, m.created_at, m.updated_at,
	COALESCE(AVG(r.rating), 0) AS average_rating, COUNT(r.id) AS review_count
	FROM movies m
	LEFT JOIN reviews r ON r.movie_id = m.id`

// MovieRepo persists the movie catalog.
type MovieRepo struct{ x sqlx.ExtContext }

func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	now := time.Now().UTC()
	id, err := insertID(r.x.ExecContext(ctx,
		`INSERT INTO movies (title, description, genre, duration_min, age_rating, release_date, poster_url, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		m.Title, m.Description, m.Genre, m.DurationMin, m.AgeRating, m.ReleaseDate, m.PosterURL, now, now))
	if err != nil {
		return err
	}
	m.ID, m.CreatedAt, m.UpdatedAt = id, now, now
	m.AverageRating, m.ReviewCount = 0, 0
	return nil
}

func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	if err := sqlx.GetContext(ctx, r.x, &m, movieSelect+" WHERE m.id = ? GROUP BY m.id", id); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// List filters by a case-insensitive title substring and an exact genre.
func (r *MovieRepo) List(ctx context.Context, f model.MovieFilter) ([]model.Movie, error) {
	where := []string{}
	args := []any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	if f.Genre != "" {
		where = append(where, "LOWER(m.genre) = ?")
		args = append(args, strings.ToLower(f.Genre))
	}
	q := movieSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q, args = limitClause(q+" GROUP BY m.id ORDER BY m.id", args, f.Limit, f.Offset)
	out := []model.Movie{}
	if err := sqlx.SelectContext(ctx, r.x, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	m.UpdatedAt = time.Now().UTC()
	return mustAffect(r.x.ExecContext(ctx,
		`UPDATE movies SET title=?, description=?, genre=?, duration_min=?, age_rating=?, release_date=?, poster_url=?, updated_at=?
		 WHERE id=?`,
		m.Title, m.Description, m.Genre, m.DurationMin, m.AgeRating, m.ReleaseDate, m.PosterURL, m.UpdatedAt, m.ID))
}

func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.x.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id))
}
