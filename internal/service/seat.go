package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/metrics"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// DefaultLockTTL applies when no TTL is configured.
const DefaultLockTTL = 5 * time.Minute

// SeatService drives the per-showtime seat state machine.
type SeatService struct {
	store  repository.Store
	ttl    time.Duration
	notify notifier
	now    clock
}

func NewSeatService(store repository.Store, ttl time.Duration, pub EventPublisher, currency string) *SeatService {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &SeatService{
		store:  store,
		ttl:    ttl,
		notify: notifier{store: store, pub: pub, currency: strings.ToLower(currency), now: utcNow},
		now:    utcNow,
	}
}

// TTL is the lifetime of a new lock.
func (s *SeatService) TTL() time.Duration { return s.ttl }

func normLabel(label string) (string, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return "", fmt.Errorf("%w: seat label is required", ErrValidation)
	}
	return label, nil
}

func sellable(ctx context.Context, tx repository.Store, showtimeID uint64, now time.Time) (*model.Showtime, error) {
	st, err := tx.Showtimes().GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if !st.Sellable(now) {
		return nil, ErrShowNotSellable
	}
	return st, nil
}

// Lock holds a seat for holder until the returned instant.  The seat must
// be AVAILABLE or carry an expired lock; a live lock of anyone, the caller
// included, fails with ErrSeatUnavailable.
func (s *SeatService) Lock(ctx context.Context, holder, showtimeID uint64, label string) (time.Time, error) {
	label, err := normLabel(label)
	if err != nil {
		return time.Time{}, err
	}
	now := s.now()
	until := now.Add(s.ttl)
	if _, err := sellable(ctx, s.store, showtimeID, now); err != nil {
		metrics.SeatLocks.WithLabelValues(lockResult(err)).Inc()
		return time.Time{}, err
	}
	err = s.store.Seats().Lock(ctx, showtimeID, label, holder, now, until)
	metrics.SeatLocks.WithLabelValues(lockResult(err)).Inc()
	if err != nil {
		return time.Time{}, err
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"showtime_id": showtimeID, "seat": label, "user_id": holder,
	}).Debug("seat locked")
	return until, nil
}

func lockResult(err error) string {
	switch {
	case err == nil:
		return "locked"
	case errors.Is(err, repository.ErrSeatUnavailable):
		return "unavailable"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrShowNotSellable):
		return "not_sellable"
	}
	return "error"
}

// Confirm sells a seat the holder has a live lock on over the counter.  In
// one transaction the seat is booked, the available counter drops and an
// order holding one booking priced at the adult or child fare is recorded for
// the holder, so cancelling that order releases the seat again.
func (s *SeatService) Confirm(ctx context.Context, holder, showtimeID uint64, label string, child bool) (*model.Order, error) {
	label, err := normLabel(label)
	if err != nil {
		return nil, err
	}
	adults, children := 1, 0
	if child {
		adults, children = 0, 1
	}
	now := s.now()
	var orderID uint64
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		st, err := sellable(ctx, tx, showtimeID, now)
		if err != nil {
			return err
		}
		if err := tx.Seats().Confirm(ctx, showtimeID, label, holder, now); err != nil {
			return err
		}
		if err := tx.Showtimes().AdjustAvailable(ctx, showtimeID, -1); err != nil {
			return fmt.Errorf("adjust availability: %w", err)
		}
		total, err := model.TicketTotal(st.PriceCents, 1, adults, children)
		if err != nil {
			return err
		}
		code := shortuuid.New()[:10]
		o := &model.Order{
			Code:       code,
			UserID:     holder,
			PaymentRef: model.BoxOfficeRef(code),
			TotalCents: total,
			Status:     model.OrderConfirmed,
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		b := &model.Booking{
			OrderID:    o.ID,
			UserID:     holder,
			ShowtimeID: showtimeID,
			SeatLabels: model.Labels{label},
			AdultCount: adults,
			ChildCount: children,
			TotalCents: total,
		}
		if err := tx.Orders().CreateBooking(ctx, b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		orderID = o.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	o, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	metrics.Orders.WithLabelValues(strings.ToLower(model.OrderConfirmed)).Inc()
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"showtime_id": showtimeID, "seat": label, "order_code": o.Code,
	}).Info("seat sold at box office")
	s.notify.publish(ctx, o, queue.RoutingOrderConfirmed)
	return o, nil
}

// Unlock releases the holder's live lock.  Admins release any lock.
func (s *SeatService) Unlock(ctx context.Context, actor Actor, showtimeID uint64, label string) error {
	label, err := normLabel(label)
	if err != nil {
		return err
	}
	if _, err := s.store.Showtimes().GetByID(ctx, showtimeID); err != nil {
		return err
	}
	holder := actor.UserID
	if actor.IsAdmin() {
		holder = 0
	}
	return s.store.Seats().Unlock(ctx, showtimeID, label, holder, s.now())
}

// ClearExpired releases every lock whose TTL has passed and returns the count.
func (s *SeatService) ClearExpired(ctx context.Context) (int, error) {
	n, err := s.store.Seats().ClearExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("clear expired locks: %w", err)
	}
	if n > 0 {
		metrics.SeatsExpired.Add(float64(n))
		logging.FromContext(ctx).WithField("released", n).Info("expired seat locks cleared")
	}
	return n, nil
}

// RunSweeper calls ClearExpired every interval until ctx is cancelled.
func (s *SeatService) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	log := logging.FromContext(ctx).WithField("component", "seat-sweeper")
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("seat sweeper stopped")
			return nil
		case <-t.C:
			if _, err := s.ClearExpired(ctx); err != nil {
				log.WithError(err).Warn("sweep failed")
			}
		}
	}
}
