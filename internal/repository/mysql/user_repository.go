package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

const userColumns = "id, email, name, password_hash, role, is_active, created_at, updated_at"

// UserRepo persists rows of the users table.
type UserRepo struct{ x sqlx.ExtContext }

// Create inserts u with a normalized email and populates its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC()
	id, err := insertID(r.x.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		u.Email, u.Name, u.PasswordHash, u.Role, u.IsActive, now, now))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return repository.ErrEmailExists
		}
		return err
	}
	u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := sqlx.GetContext(ctx, r.x, &u, "SELECT "+userColumns+" FROM users WHERE id=?", id); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	if err := sqlx.GetContext(ctx, r.x, &u, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	q, args := limitClause("SELECT "+userColumns+" FROM users ORDER BY id", nil, limit, offset)
	out := []model.User{}
	if err := sqlx.SelectContext(ctx, r.x, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.UpdatedAt = time.Now().UTC()
	err := mustAffect(r.x.ExecContext(ctx,
		"UPDATE users SET email=?, name=?, password_hash=?, role=?, is_active=?, updated_at=? WHERE id=?",
		u.Email, u.Name, u.PasswordHash, u.Role, u.IsActive, u.UpdatedAt, u.ID))
	if errors.Is(err, repository.ErrConflict) {
		return repository.ErrEmailExists
	}
	return err
}

// Delete removes a user.  Accounts that placed orders cannot be removed.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return mustAffect(r.x.ExecContext(ctx, "DELETE FROM users WHERE id=?", id))
}
