package mysql

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

const hallColumns = "id, cinema_id, name, layout, is_active, created_at, updated_at"

// HallRepo provides CRUD operations on halls.  The layout is stored as a
// JSON column through model.HallLayout's Valuer and Scanner.
type HallRepo struct{ x sqlx.ExtContext }

func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	now := time.Now().UTC()
	id, err := insertID(r.x.ExecContext(ctx,
		"INSERT INTO halls (cinema_id, name, layout, is_active, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		h.CinemaID, h.Name, h.Layout, h.IsActive, now, now))
	if err != nil {
		return err
	}
	h.ID, h.CreatedAt, h.UpdatedAt = id, now, now
	return nil
}

func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	var h model.Hall
	if err := sqlx.GetContext(ctx, r.x, &h, "SELECT "+hallColumns+" FROM halls WHERE id = ?", id); err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

// List returns the halls of a cinema, or every hall when cinemaID is zero.
func (r *HallRepo) List(ctx context.Context, cinemaID uint64) ([]model.Hall, error) {
	q := "SELECT " + hallColumns + " FROM halls"
	args := []any{}
	if cinemaID != 0 {
		q += " WHERE cinema_id = ?"
		args = append(args, cinemaID)
	}
	out := []model.Hall{}
	if err := sqlx.SelectContext(ctx, r.x, &out, q+" ORDER BY id", args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HallRepo) Update(ctx context.Context, h *model.Hall) error {
	h.UpdatedAt = time.Now().UTC()
	return mustAffect(r.x.ExecContext(ctx,
		"UPDATE halls SET name = ?, layout = ?, is_active = ?, updated_at = ? WHERE id = ?",
		h.Name, h.Layout, h.IsActive, h.UpdatedAt, h.ID))
}

func (r *HallRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.x.ExecContext(ctx, "DELETE FROM halls WHERE id = ?", id))
}
