// Package memory is an in-process implementation of repository.Store.  It is
// used for local development (STORE_DRIVER=memory) and as the backing store
// of service and handler tests.  Every transition follows the same rules as
// the MySQL store; Atomic holds the store mutex for the whole transaction and
// restores a snapshot when fn fails.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

type seatKey struct {
	showtimeID uint64
	label      string
}

type tokenRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type data struct {
	seq       map[string]uint64
	users     map[uint64]model.User
	tokens    map[string]tokenRow
	cinemas   map[uint64]model.Cinema
	halls     map[uint64]model.Hall
	movies    map[uint64]model.Movie
	showtimes map[uint64]model.Showtime
	seats     map[seatKey]model.ShowSeat
	snacks    map[uint64]model.Snack
	orders    map[uint64]model.Order
	bookings  map[uint64]model.Booking
	purchases map[uint64]model.Purchase
	reviews   map[uint64]model.Review
}

func newData() *data {
	return &data{
		seq:       map[string]uint64{},
		users:     map[uint64]model.User{},
		tokens:    map[string]tokenRow{},
		cinemas:   map[uint64]model.Cinema{},
		halls:     map[uint64]model.Hall{},
		movies:    map[uint64]model.Movie{},
		showtimes: map[uint64]model.Showtime{},
		seats:     map[seatKey]model.ShowSeat{},
		snacks:    map[uint64]model.Snack{},
		orders:    map[uint64]model.Order{},
		bookings:  map[uint64]model.Booking{},
		purchases: map[uint64]model.Purchase{},
		reviews:   map[uint64]model.Review{},
	}
}

func (d *data) next(table string) uint64 {
	d.seq[table]++
	return d.seq[table]
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.seq {
		c.seq[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.tokens {
		c.tokens[k] = v
	}
	for k, v := range d.cinemas {
		c.cinemas[k] = v
	}
	for k, v := range d.halls {
		v.Layout = v.Layout.Clone()
		c.halls[k] = v
	}
	for k, v := range d.movies {
		c.movies[k] = v
	}
	for k, v := range d.showtimes {
		v.BookedSeats = nil
		c.showtimes[k] = v
	}
	for k, v := range d.seats {
		c.seats[k] = copySeat(v)
	}
	for k, v := range d.snacks {
		c.snacks[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.bookings {
		v.SeatLabels = append(model.Labels(nil), v.SeatLabels...)
		c.bookings[k] = v
	}
	for k, v := range d.purchases {
		v.Items = append([]model.PurchaseItem(nil), v.Items...)
		c.purchases[k] = v
	}
	for k, v := range d.reviews {
		c.reviews[k] = v
	}
	return c
}

// copySeat detaches the pointer fields so stored seats never alias caller values.
func copySeat(s model.ShowSeat) model.ShowSeat {
	if s.LockedBy != nil {
		v := *s.LockedBy
		s.LockedBy = &v
	}
	if s.LockedUntil != nil {
		v := *s.LockedUntil
		s.LockedUntil = &v
	}
	return s
}

type state struct {
	d *data
}

// Store is the in-memory repository.Store.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, st: &state{d: newData()}}
}

var _ repository.Store = (*Store)(nil)

// lock acquires the store mutex unless the caller already runs inside Atomic.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) d() *data { return s.st.d }

// Atomic runs fn with exclusive access to the store.  When fn returns an
// error every change it made is discarded.
func (s *Store) Atomic(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.d.clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true}
	if err := fn(tx); err != nil {
		s.st.d = snapshot
		return err
	}
	return nil
}

func (s *Store) Users() repository.UserRepository         { return userRepo{s} }
func (s *Store) Tokens() repository.TokenRepository       { return tokenRepo{s} }
func (s *Store) Cinemas() repository.CinemaRepository     { return cinemaRepo{s} }
func (s *Store) Halls() repository.HallRepository         { return hallRepo{s} }
func (s *Store) Movies() repository.MovieRepository       { return movieRepo{s} }
func (s *Store) Showtimes() repository.ShowtimeRepository { return showtimeRepo{s} }
func (s *Store) Seats() repository.ShowSeatRepository     { return seatRepo{s} }
func (s *Store) Snacks() repository.SnackRepository       { return snackRepo{s} }
func (s *Store) Orders() repository.OrderRepository       { return orderRepo{s} }
func (s *Store) Reviews() repository.ReviewRepository     { return reviewRepo{s} }

func now() time.Time { return time.Now().UTC() }

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// page applies limit/offset to a slice; a non-positive limit means no limit.
func page[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return []T{}
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
