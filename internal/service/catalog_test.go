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

func TestHallLayouts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	assert.Equal(t, "B3", f.hall.Layout.Seats[5].Label)

	layout := model.GridLayout(1, 3)
	layout.Seats[1].Active = false
	layout.Seats[2].Type = model.SeatVIP
	h, err := f.catalog.CreateHall(ctx, HallInput{CinemaID: f.hall.CinemaID, Name: "Small", Layout: &layout})
	require.NoError(t, err)
	st, err := f.shows.Create(ctx, ShowtimeInput{MovieID: f.movie.ID, HallID: h.ID, StartsAt: f.now.Add(time.Hour), PriceCents: 800})
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalSeats, "inactive seats are not sold")

	bad := model.GridLayout(1, 2)
	bad.Seats[1].Label = "A1"
	_, err = f.catalog.CreateHall(ctx, HallInput{CinemaID: f.hall.CinemaID, Name: "Bad", Layout: &bad})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.catalog.CreateHall(ctx, HallInput{CinemaID: f.hall.CinemaID, Name: "Empty"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.catalog.CreateHall(ctx, HallInput{CinemaID: 999, Name: "Orphan", Rows: 1, Cols: 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	halls, err := f.catalog.ListHalls(ctx, f.hall.CinemaID)
	require.NoError(t, err)
	assert.Len(t, halls, 2)
	_, err = f.catalog.ListHalls(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCatalogDeleteConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.catalog.DeleteMovie(ctx, f.movie.ID), repository.ErrConflict)
	assert.ErrorIs(t, f.catalog.DeleteHall(ctx, f.hall.ID), repository.ErrConflict)
	assert.ErrorIs(t, f.catalog.DeleteCinema(ctx, f.hall.CinemaID), repository.ErrConflict)

	require.NoError(t, f.shows.Delete(ctx, f.showtime.ID))
	require.NoError(t, f.catalog.DeleteHall(ctx, f.hall.ID))
	require.NoError(t, f.catalog.DeleteCinema(ctx, f.hall.CinemaID))
	require.NoError(t, f.catalog.DeleteMovie(ctx, f.movie.ID))
}

func TestMoviesAndSnacks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.CreateMovie(ctx, MovieInput{Title: " ", DurationMin: 90})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.catalog.CreateMovie(ctx, MovieInput{Title: "Alien", Genre: "Horror", DurationMin: 117})
	require.NoError(t, err)

	movies, err := f.catalog.ListMovies(ctx, model.MovieFilter{Genre: "horror"})
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Alien", movies[0].Title)

	m, err := f.catalog.UpdateMovie(ctx, f.movie.ID, MovieInput{Title: "Heat (1995)", DurationMin: 170})
	require.NoError(t, err)
	assert.Equal(t, "Heat (1995)", m.Title)

	_, err = f.catalog.CreateSnack(ctx, model.Snack{Name: "Free air", PriceCents: 0})
	assert.ErrorIs(t, err, ErrValidation)
	sn := *f.soda
	sn.IsAvailable = false
	_, err = f.catalog.UpdateSnack(ctx, f.soda.ID, sn)
	require.NoError(t, err)
	available, err := f.catalog.ListSnacks(ctx, true)
	require.NoError(t, err)
	assert.Len(t, available, 1)
	all, err := f.catalog.ListSnacks(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
