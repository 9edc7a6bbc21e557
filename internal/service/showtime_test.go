package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

func TestShowtimeCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	st := f.showtime
	assert.Equal(t, st.StartsAt.Add(170*time.Minute), st.EndsAt)
	assert.Equal(t, 6, st.TotalSeats)
	assert.Equal(t, 6, st.SeatsAvailable)
	assert.Equal(t, f.hall.CinemaID, st.CinemaID)
	assert.Equal(t, model.ShowtimeScheduled, st.Status)

	_, err := f.shows.Create(ctx, ShowtimeInput{
		MovieID: f.movie.ID, HallID: f.hall.ID, StartsAt: st.EndsAt.Add(-time.Minute), PriceCents: 900,
	})
	assert.ErrorIs(t, err, repository.ErrConflict, "overlapping showtime in the same hall")

	next, err := f.shows.Create(ctx, ShowtimeInput{
		MovieID: f.movie.ID, HallID: f.hall.ID, StartsAt: st.EndsAt, PriceCents: 900,
	})
	require.NoError(t, err, "back to back showtimes do not overlap")

	later := st.EndsAt.Add(-time.Hour)
	_, err = f.shows.Update(ctx, next.ID, ShowtimeUpdate{StartsAt: &later})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = f.shows.Create(ctx, ShowtimeInput{MovieID: f.movie.ID, HallID: f.hall.ID, StartsAt: st.StartsAt})
	assert.ErrorIs(t, err, ErrValidation)

	list, err := f.shows.List(ctx, model.ShowtimeFilter{HallID: f.hall.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, st.ID, list[0].ID)
}

func TestShowtimeCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.lock(t, f.bob, "A3")
	f.lock(t, f.alice, "A1")
	cart := Cart{ShowtimeID: f.showtime.ID, Seats: []string{"A1"}, AdultCount: 1}
	o, err := f.checkout.Checkout(ctx, f.alice.ID, cart, f.pay(t, f.alice, cart))
	require.NoError(t, err)

	cancelled := model.ShowtimeCancelled
	_, err = f.shows.Update(ctx, f.showtime.ID, ShowtimeUpdate{Status: &cancelled})
	assert.ErrorIs(t, err, repository.ErrConflict, "active bookings block cancellation")
	assert.ErrorIs(t, f.shows.Delete(ctx, f.showtime.ID), repository.ErrConflict)

	_, err = f.orders.Cancel(ctx, Actor{UserID: f.alice.ID}, o.ID)
	require.NoError(t, err)

	st, err := f.shows.Update(ctx, f.showtime.ID, ShowtimeUpdate{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, model.ShowtimeCancelled, st.Status)

	seat, err := f.store.Seats().Get(ctx, f.showtime.ID, "A3")
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, seat.Status, "cancelling releases locks")

	_, err = f.seats.Lock(ctx, f.bob.ID, f.showtime.ID, "A3")
	assert.ErrorIs(t, err, ErrShowNotSellable)

	price := int64(1)
	_, err = f.shows.Update(ctx, f.showtime.ID, ShowtimeUpdate{PriceCents: &price})
	assert.ErrorIs(t, err, repository.ErrConflict, "cancelled showtimes are frozen")

	assert.ErrorIs(t, f.shows.Delete(ctx, f.showtime.ID), repository.ErrConflict, "cancelled bookings still pin the showtime")
}

func TestShowtimeUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	price := int64(1250)
	start := f.showtime.StartsAt.Add(2 * time.Hour)
	st, err := f.shows.Update(ctx, f.showtime.ID, ShowtimeUpdate{PriceCents: &price, StartsAt: &start})
	require.NoError(t, err)
	assert.Equal(t, price, st.PriceCents)
	assert.Equal(t, start.Add(170*time.Minute), st.EndsAt)
	assert.Equal(t, 6, st.SeatsAvailable)

	bogus := "PAUSED"
	_, err = f.shows.Update(ctx, f.showtime.ID, ShowtimeUpdate{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)
}
