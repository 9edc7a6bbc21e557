package memory

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

type userRepo struct{ s *Store }

func (r userRepo) emailTaken(email string, except uint64) bool {
	for id, u := range r.s.d().users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r userRepo) Create(_ context.Context, u *model.User) error {
	defer r.s.lock()()
	d := r.s.d()
	if r.emailTaken(u.Email, 0) {
		return repository.ErrEmailExists
	}
	ts := now()
	u.ID = d.next("users")
	u.CreatedAt, u.UpdatedAt = ts, ts
	d.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uint64) (*model.User, error) {
	defer r.s.lock()()
	u, ok := r.s.d().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.d().users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) List(_ context.Context, limit, offset int) ([]model.User, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := make([]model.User, 0, len(d.users))
	for _, id := range sortedKeys(d.users) {
		out = append(out, d.users[id])
	}
	return page(out, limit, offset), nil
}

func (r userRepo) Update(_ context.Context, u *model.User) error {
	defer r.s.lock()()
	d := r.s.d()
	cur, ok := d.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return repository.ErrEmailExists
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = now()
	d.users[u.ID] = *u
	return nil
}

func (r userRepo) Delete(_ context.Context, id uint64) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, o := range d.orders {
		if o.UserID == id {
			return repository.ErrConflict
		}
	}
	delete(d.users, id)
	for h, t := range d.tokens {
		if t.userID == id {
			delete(d.tokens, h)
		}
	}
	for rid, rv := range d.reviews {
		if rv.UserID == id {
			delete(d.reviews, rid)
		}
	}
	return nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	defer r.s.lock()()
	r.s.d().tokens[tokenHash] = tokenRow{userID: userID, exp: exp}
	return nil
}

func (r tokenRepo) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	defer r.s.lock()()
	t, ok := r.s.d().tokens[tokenHash]
	if !ok || t.revoked || !now().Before(t.exp) {
		return 0, repository.ErrNotFound
	}
	return t.userID, nil
}

func (r tokenRepo) RevokeByHash(_ context.Context, tokenHash string) error {
	defer r.s.lock()()
	d := r.s.d()
	if t, ok := d.tokens[tokenHash]; ok {
		t.revoked = true
		d.tokens[tokenHash] = t
	}
	return nil
}

func (r tokenRepo) RevokeAllForUser(_ context.Context, userID uint64) error {
	defer r.s.lock()()
	d := r.s.d()
	for h, t := range d.tokens {
		if t.userID == userID {
			t.revoked = true
			d.tokens[h] = t
		}
	}
	return nil
}
