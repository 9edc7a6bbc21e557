package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository/memory"
)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.OrderEvent
}

func (r *recorder) PublishOrderEvent(_ context.Context, ev queue.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store    *memory.Store
	gw       *payment.Sandbox
	events   *recorder
	catalog  *CatalogService
	shows    *ShowtimeService
	seats    *SeatService
	checkout *CheckoutService
	orders   *OrderService

	now      time.Time
	alice    *model.User
	bob      *model.User
	movie    *model.Movie
	hall     *model.Hall
	showtime *model.Showtime
	popcorn  *model.Snack
	soda     *model.Snack
}

// newFixture builds a 2x3 hall with one showtime a day ahead priced at 1001
// cents so the child price rounds.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store:  memory.NewStore(),
		gw:     payment.NewSandbox(),
		events: &recorder{},
		now:    time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.catalog = NewCatalogService(f.store)
	f.shows = NewShowtimeService(f.store)
	f.seats = NewSeatService(f.store, 5*time.Minute, f.events, "USD")
	f.checkout = NewCheckoutService(f.store, f.gw, f.events, "USD")
	f.orders = NewOrderService(f.store, f.gw, f.events, "USD")
	f.setClock(f.now)

	f.alice = &model.User{Email: "alice@example.com", Name: "Alice", Role: model.RoleCustomer, IsActive: true}
	require.NoError(t, f.store.Users().Create(ctx, f.alice))
	f.bob = &model.User{Email: "bob@example.com", Name: "Bob", Role: model.RoleCustomer, IsActive: true}
	require.NoError(t, f.store.Users().Create(ctx, f.bob))

	var err error
	f.movie, err = f.catalog.CreateMovie(ctx, MovieInput{Title: "Heat", Genre: "Crime", DurationMin: 170})
	require.NoError(t, err)
	cinema, err := f.catalog.CreateCinema(ctx, model.Cinema{Name: "Roxy", City: "Berlin"})
	require.NoError(t, err)
	f.hall, err = f.catalog.CreateHall(ctx, HallInput{CinemaID: cinema.ID, Name: "Hall 1", Rows: 2, Cols: 3})
	require.NoError(t, err)
	f.showtime, err = f.shows.Create(ctx, ShowtimeInput{
		MovieID: f.movie.ID, HallID: f.hall.ID, StartsAt: f.now.Add(24 * time.Hour), PriceCents: 1001,
	})
	require.NoError(t, err)
	f.popcorn, err = f.catalog.CreateSnack(ctx, model.Snack{Name: "Popcorn", PriceCents: 450, IsAvailable: true})
	require.NoError(t, err)
	f.soda, err = f.catalog.CreateSnack(ctx, model.Snack{Name: "Soda", PriceCents: 300, IsAvailable: true})
	require.NoError(t, err)
	return f
}

func (f *fixture) setClock(at time.Time) {
	now := func() time.Time { return at }
	f.shows.now = now
	f.seats.now = now
	f.seats.notify.now = now
	f.checkout.now = now
	f.checkout.notify.now = now
	f.orders.now = now
	f.orders.notify.now = now
}

func (f *fixture) lock(t *testing.T, user *model.User, labels ...string) {
	t.Helper()
	for _, l := range labels {
		_, err := f.seats.Lock(context.Background(), user.ID, f.showtime.ID, l)
		require.NoError(t, err, l)
	}
}

// pay opens and confirms an intent for cart.
func (f *fixture) pay(t *testing.T, user *model.User, cart Cart) string {
	t.Helper()
	ctx := context.Background()
	_, pi, err := f.checkout.CreateIntent(ctx, user.ID, cart)
	require.NoError(t, err)
	_, err = f.checkout.ConfirmIntent(ctx, user.ID, pi.ID, "pm_card_visa")
	require.NoError(t, err)
	return pi.ID
}

func (f *fixture) showtimeNow(t *testing.T) *model.Showtime {
	t.Helper()
	st, err := f.store.Showtimes().GetByID(context.Background(), f.showtime.ID)
	require.NoError(t, err)
	return st
}
