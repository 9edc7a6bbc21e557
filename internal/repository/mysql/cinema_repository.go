package mysql

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

const cinemaColumns = "id, name, city, address, created_at, updated_at"

// CinemaRepo encapsulates all database queries related to cinemas.
type CinemaRepo struct{ x sqlx.ExtContext }

// Create inserts a new cinema.  On success the cinema's ID and timestamps
// are populated.
func (r *CinemaRepo) Create(ctx context.Context, c *model.Cinema) error {
	now := time.Now().UTC()
	id, err := insertID(r.x.ExecContext(ctx,
		"INSERT INTO cinemas (name, city, address, created_at, updated_at) VALUES (?,?,?,?,?)",
		c.Name, c.City, c.Address, now, now))
	if err != nil {
		return err
	}
	c.ID, c.CreatedAt, c.UpdatedAt = id, now, now
	return nil
}

func (r *CinemaRepo) GetByID(ctx context.Context, id uint64) (*model.Cinema, error) {
	var c model.Cinema
	if err := sqlx.GetContext(ctx, r.x, &c, "SELECT "+cinemaColumns+" FROM cinemas WHERE id = ?", id); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// List returns all cinemas ordered by id.
func (r *CinemaRepo) List(ctx context.Context) ([]model.Cinema, error) {
	out := []model.Cinema{}
	if err := sqlx.SelectContext(ctx, r.x, &out, "SELECT "+cinemaColumns+" FROM cinemas ORDER BY id"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CinemaRepo) Update(ctx context.Context, c *model.Cinema) error {
	c.UpdatedAt = time.Now().UTC()
	return mustAffect(r.x.ExecContext(ctx,
		"UPDATE cinemas SET name = ?, city = ?, address = ?, updated_at = ? WHERE id = ?",
		c.Name, c.City, c.Address, c.UpdatedAt, c.ID))
}

// Delete removes a cinema.  The halls foreign key rejects the delete while
// halls remain, which surfaces as repository.ErrConflict.
func (r *CinemaRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.x.ExecContext(ctx, "DELETE FROM cinemas WHERE id = ?", id))
}
