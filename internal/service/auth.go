package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/utils"
)

// AuthConfig holds the token and hashing parameters of AuthService.
type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Tokens is the credential pair handed to a client after login.
type Tokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// AuthService registers users and issues access and refresh tokens.
type AuthService struct {
	store repository.Store
	cfg   AuthConfig
}

func NewAuthService(store repository.Store, cfg AuthConfig) *AuthService {
	return &AuthService{store: store, cfg: cfg}
}

// Register creates a CUSTOMER account and logs it in.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*model.User, *Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, nil, fmt.Errorf("%w: email and name are required", ErrValidation)
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if errors.Is(err, utils.ErrWeakPassword) {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Email: email, Name: name, PasswordHash: hash, Role: model.RoleCustomer, IsActive: true}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}
	logging.FromContext(ctx).WithField("user_id", u.ID).Info("user registered")
	tokens, err := s.issue(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

// Login verifies the password and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, *Tokens, error) {
	u, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, nil, ErrAccountDisabled
	}
	tokens, err := s.issue(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*model.User, *Tokens, error) {
	if raw == "" {
		return nil, nil, ErrInvalidCredentials
	}
	hash := utils.HashRefreshRaw(raw)
	var (
		u      *model.User
		tokens *Tokens
	)
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		userID, err := tx.Tokens().ValidateRefresh(ctx, hash)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return fmt.Errorf("validate refresh: %w", err)
		}
		if u, err = tx.Users().GetByID(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidCredentials
			}
			return fmt.Errorf("load user: %w", err)
		}
		if !u.IsActive {
			return ErrAccountDisabled
		}
		if err := tx.Tokens().RevokeByHash(ctx, hash); err != nil {
			return fmt.Errorf("revoke refresh: %w", err)
		}
		tokens, err = s.issueWith(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

// Logout revokes a refresh token.  Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	if err := s.store.Tokens().RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("revoke refresh: %w", err)
	}
	return nil
}

// Me returns the account of an authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uint64) (*model.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}

// EnsureAdmin creates the bootstrap admin account, or promotes an existing
// account with that email.  An empty email disables bootstrapping.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if name == "" {
		name = "Administrator"
	}
	log := logging.FromContext(ctx).WithField("email", email)

	u, err := s.store.Users().GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		u = &model.User{Email: email, Name: name, PasswordHash: hash, Role: model.RoleAdmin, IsActive: true}
		if err := s.store.Users().Create(ctx, u); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info("admin account created")
		return nil
	case err != nil:
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if u.IsAdmin() && u.IsActive {
		return nil
	}
	u.Role = model.RoleAdmin
	u.IsActive = true
	if err := s.store.Users().Update(ctx, u); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info("existing account promoted to admin")
	return nil
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (*Tokens, error) {
	return s.issueWith(ctx, s.store, u)
}

func (s *AuthService) issueWith(ctx context.Context, store repository.Store, u *model.User) (*Tokens, error) {
	at, err := utils.NewAccessToken(s.cfg.Secret, u.ID, u.Role, s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	rt, err := utils.NewRefreshToken(s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := store.Tokens().StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Tokens{
		AccessToken:      at.Token,
		AccessExpiresAt:  at.Exp,
		RefreshToken:     rt.Raw,
		RefreshExpiresAt: rt.Exp,
	}, nil
}
