package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

func TestReviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reviews := NewReviewService(f.store)

	_, err := reviews.Create(ctx, f.alice.ID, f.movie.ID, 6, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = reviews.Create(ctx, f.alice.ID, 999, 5, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	r, err := reviews.Create(ctx, f.alice.ID, f.movie.ID, 5, " great ")
	require.NoError(t, err)
	assert.Equal(t, "great", r.Comment)
	assert.Equal(t, "Alice", r.UserName)
	_, err = reviews.Create(ctx, f.alice.ID, f.movie.ID, 4, "again")
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = reviews.Create(ctx, f.bob.ID, f.movie.ID, 2, "long")
	require.NoError(t, err)

	m, err := f.catalog.GetMovie(ctx, f.movie.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, m.AverageRating, 0.001)
	assert.Equal(t, 2, m.ReviewCount)

	list, err := reviews.ListByMovie(ctx, f.movie.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.ErrorIs(t, reviews.Delete(ctx, Actor{UserID: f.bob.ID, Role: model.RoleCustomer}, r.ID), repository.ErrForbidden)
	require.NoError(t, reviews.Delete(ctx, Actor{UserID: f.alice.ID, Role: model.RoleCustomer}, r.ID))
	all, err := reviews.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	users := NewUserService(f.store)
	admin := Actor{UserID: f.bob.ID, Role: model.RoleAdmin}

	role := "OWNER"
	_, err := users.Update(ctx, admin, f.alice.ID, UserUpdate{Role: &role})
	assert.ErrorIs(t, err, ErrValidation)
	role = model.RoleCustomer
	_, err = users.Update(ctx, admin, f.bob.ID, UserUpdate{Role: &role})
	assert.ErrorIs(t, err, ErrValidation, "admins cannot demote themselves")

	name := "Alice A."
	u, err := users.Update(ctx, admin, f.alice.ID, UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, u.Name)

	assert.ErrorIs(t, users.Delete(ctx, admin, f.bob.ID), ErrValidation)

	f.lock(t, f.alice, "A1")
	cart := Cart{ShowtimeID: f.showtime.ID, Seats: []string{"A1"}, AdultCount: 1}
	_, err = f.checkout.Checkout(ctx, f.alice.ID, cart, f.pay(t, f.alice, cart))
	require.NoError(t, err)
	assert.ErrorIs(t, users.Delete(ctx, admin, f.alice.ID), repository.ErrConflict, "users with orders are kept")

	list, err := users.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
