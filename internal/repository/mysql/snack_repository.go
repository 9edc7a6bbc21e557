package mysql

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

const snackColumns = "id, name, description, category, price_cents, image_url, is_available, created_at, updated_at"

// SnackRepo persists concession items.
type SnackRepo struct{ x sqlx.ExtContext }

func (r *SnackRepo) Create(ctx context.Context, s *model.Snack) error {
	now := time.Now().UTC()
	id, err := insertID(r.x.ExecContext(ctx,
		`INSERT INTO snacks (name, description, category, price_cents, image_url, is_available, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		s.Name, s.Description, s.Category, s.PriceCents, s.ImageURL, s.IsAvailable, now, now))
	if err != nil {
		return err
	}
	s.ID, s.CreatedAt, s.UpdatedAt = id, now, now
	return nil
}

func (r *SnackRepo) GetByID(ctx context.Context, id uint64) (*model.Snack, error) {
	var s model.Snack
	if err := sqlx.GetContext(ctx, r.x, &s, "SELECT "+snackColumns+" FROM snacks WHERE id=?", id); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// GetByIDs returns the snacks that exist among ids; missing ids are skipped.
func (r *SnackRepo) GetByIDs(ctx context.Context, ids []uint64) ([]model.Snack, error) {
	out := []model.Snack{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In("SELECT "+snackColumns+" FROM snacks WHERE id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, r.x, &out, r.x.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SnackRepo) List(ctx context.Context, onlyAvailable bool) ([]model.Snack, error) {
	q := "SELECT " + snackColumns + " FROM snacks"
	if onlyAvailable {
		q += " WHERE is_available = TRUE"
	}
	out := []model.Snack{}
	if err := sqlx.SelectContext(ctx, r.x, &out, q+" ORDER BY id"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SnackRepo) Update(ctx context.Context, s *model.Snack) error {
	s.UpdatedAt = time.Now().UTC()
	return mustAffect(r.x.ExecContext(ctx,
		`UPDATE snacks SET name=?, description=?, category=?, price_cents=?, image_url=?, is_available=?, updated_at=?
		 WHERE id=?`,
		s.Name, s.Description, s.Category, s.PriceCents, s.ImageURL, s.IsAvailable, s.UpdatedAt, s.ID))
}

func (r *SnackRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.x.ExecContext(ctx, "DELETE FROM snacks WHERE id=?", id))
}
