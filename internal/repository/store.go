package repository

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// Store gives access to every repository.  Atomic runs fn inside one
// transaction: the Store passed to fn is bound to that transaction and all
// writes made through it are committed together or not at all.
type Store interface {
	Users() UserRepository
	Tokens() TokenRepository
	Cinemas() CinemaRepository
	Halls() HallRepository
	Movies() MovieRepository
	Showtimes() ShowtimeRepository
	Seats() ShowSeatRepository
	Snacks() SnackRepository
	Orders() OrderRepository
	Reviews() ReviewRepository

	Atomic(ctx context.Context, fn func(Store) error) error
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uint64) error
}

// TokenRepository persists hashed refresh tokens.
type TokenRepository interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owner of a non-revoked, non-expired token
	// or ErrNotFound.
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// CinemaRepository persists cinemas.  Delete returns ErrConflict while the
// cinema still has halls.
type CinemaRepository interface {
	Create(ctx context.Context, c *model.Cinema) error
	GetByID(ctx context.Context, id uint64) (*model.Cinema, error)
	List(ctx context.Context) ([]model.Cinema, error)
	Update(ctx context.Context, c *model.Cinema) error
	Delete(ctx context.Context, id uint64) error
}

// HallRepository persists halls and their layouts.  Delete returns
// ErrConflict while showtimes reference the hall.
type HallRepository interface {
	Create(ctx context.Context, h *model.Hall) error
	GetByID(ctx context.Context, id uint64) (*model.Hall, error)
	List(ctx context.Context, cinemaID uint64) ([]model.Hall, error)
	Update(ctx context.Context, h *model.Hall) error
	Delete(ctx context.Context, id uint64) error
}

// MovieRepository persists the catalog.  Delete returns ErrConflict while
// showtimes reference the movie.
type MovieRepository interface {
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	List(ctx context.Context, f model.MovieFilter) ([]model.Movie, error)
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id uint64) error
}

// ShowtimeRepository persists showtimes.  Delete returns ErrConflict while
// non-cancelled bookings reference the showtime.
type ShowtimeRepository interface {
	Create(ctx context.Context, s *model.Showtime) error
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
	List(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error)
	Update(ctx context.Context, s *model.Showtime) error
	Delete(ctx context.Context, id uint64) error
	// FindOverlapping returns non-cancelled showtimes of the hall that
	// intersect [start, end), ignoring excludeID.
	FindOverlapping(ctx context.Context, hallID uint64, start, end time.Time, excludeID uint64) ([]model.Showtime, error)
	// AdjustAvailable adds delta to seats_available.
	AdjustAvailable(ctx context.Context, id uint64, delta int) error
}

// ShowSeatRepository holds per-showtime seat states.  Every transition is a
// single compare-and-swap on one seat row; a failed precondition returns
// ErrSeatUnavailable or ErrSeatNotLocked and leaves the row untouched.
type ShowSeatRepository interface {
	CreateBulk(ctx context.Context, seats []model.ShowSeat) error
	ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.ShowSeat, error)
	Get(ctx context.Context, showtimeID uint64, label string) (*model.ShowSeat, error)
	Lock(ctx context.Context, showtimeID uint64, label string, holder uint64, now, until time.Time) error
	Confirm(ctx context.Context, showtimeID uint64, label string, holder uint64, now time.Time) error
	// Unlock releases a live lock.  A zero holder releases any holder's lock.
	Unlock(ctx context.Context, showtimeID uint64, label string, holder uint64, now time.Time) error
	// Release returns BOOKED seats to AVAILABLE and reports how many moved.
	Release(ctx context.Context, showtimeID uint64, labels []string, now time.Time) (int, error)
	// ReleaseLocks clears every lock of a showtime, expired or not.
	ReleaseLocks(ctx context.Context, showtimeID uint64, now time.Time) (int, error)
	// ClearExpired releases every lock whose TTL passed before now.
	ClearExpired(ctx context.Context, now time.Time) (int, error)
	// LockedBy lists the labels holder has live locks on for a showtime.
	LockedBy(ctx context.Context, showtimeID, holder uint64, now time.Time) ([]string, error)
}

// SnackRepository persists concession items.
type SnackRepository interface {
	Create(ctx context.Context, s *model.Snack) error
	GetByID(ctx context.Context, id uint64) (*model.Snack, error)
	GetByIDs(ctx context.Context, ids []uint64) ([]model.Snack, error)
	List(ctx context.Context, onlyAvailable bool) ([]model.Snack, error)
	Update(ctx context.Context, s *model.Snack) error
	Delete(ctx context.Context, id uint64) error
}

// OrderRepository persists orders together with their bookings and purchase.
// Get methods load the members of an order.
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	CreateBooking(ctx context.Context, b *model.Booking) error
	CreatePurchase(ctx context.Context, p *model.Purchase) error
	GetByID(ctx context.Context, id uint64) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	List(ctx context.Context, limit, offset int) ([]model.Order, error)
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	GetPurchase(ctx context.Context, id uint64) (*model.Purchase, error)
	// MarkCancelled flags the order, its bookings and its purchase.
	MarkCancelled(ctx context.Context, orderID uint64, at time.Time) error
	// CountActiveBookings counts non-cancelled bookings of a showtime.
	CountActiveBookings(ctx context.Context, showtimeID uint64) (int, error)
}

// ReviewRepository persists reviews.  Create returns ErrConflict when the
// user already reviewed the movie.
type ReviewRepository interface {
	Create(ctx context.Context, r *model.Review) error
	GetByID(ctx context.Context, id uint64) (*model.Review, error)
	ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error)
	List(ctx context.Context, limit, offset int) ([]model.Review, error)
	Delete(ctx context.Context, id uint64) error
}
