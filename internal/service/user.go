package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// UserService is the back-office view of accounts.
type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// UserUpdate changes an account.  Nil fields are left untouched.
type UserUpdate struct {
	Name     *string
	Role     *string
	IsActive *bool
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	return s.store.Users().List(ctx, limit, offset)
}

func (s *UserService) Get(ctx context.Context, id uint64) (*model.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// Update applies in.  Admins cannot demote or deactivate themselves.
// Deactivating an account revokes its refresh tokens.
func (s *UserService) Update(ctx context.Context, actor Actor, id uint64, in UserUpdate) (*model.User, error) {
	var u *model.User
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		var err error
		if u, err = tx.Users().GetByID(ctx, id); err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return fmt.Errorf("%w: name cannot be empty", ErrValidation)
			}
			u.Name = name
		}
		if in.Role != nil {
			if !model.ValidRole(*in.Role) {
				return fmt.Errorf("%w: unknown role %q", ErrValidation, *in.Role)
			}
			if id == actor.UserID && *in.Role != model.RoleAdmin {
				return fmt.Errorf("%w: you cannot demote yourself", ErrValidation)
			}
			u.Role = *in.Role
		}
		if in.IsActive != nil {
			if id == actor.UserID && !*in.IsActive {
				return fmt.Errorf("%w: you cannot deactivate yourself", ErrValidation)
			}
			u.IsActive = *in.IsActive
			if !u.IsActive {
				if err := tx.Tokens().RevokeAllForUser(ctx, id); err != nil {
					return fmt.Errorf("revoke tokens: %w", err)
				}
			}
		}
		return tx.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes an account without orders.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint64) error {
	if id == actor.UserID {
		return fmt.Errorf("%w: you cannot delete yourself", ErrValidation)
	}
	return s.store.Users().Delete(ctx, id)
}
