package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/metrics"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/receipt"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// OrderService reads and cancels orders and their bookings and purchases.
type OrderService struct {
	store    repository.Store
	gateway  payment.Gateway
	notify   notifier
	receipts *receipt.Builder
	now      clock
}

func NewOrderService(store repository.Store, gw payment.Gateway, pub EventPublisher, currency string) *OrderService {
	currency = strings.ToLower(currency)
	return &OrderService{
		store:    store,
		gateway:  gw,
		notify:   notifier{store: store, pub: pub, currency: currency, now: utcNow},
		receipts: receipt.NewBuilder(currency),
		now:      utcNow,
	}
}

func (s *OrderService) ListMine(ctx context.Context, userID uint64) ([]model.Order, error) {
	return s.store.Orders().ListByUser(ctx, userID)
}

// ListAll is the back-office listing, newest first.
func (s *OrderService) ListAll(ctx context.Context, limit, offset int) ([]model.Order, error) {
	return s.store.Orders().List(ctx, limit, offset)
}

func (s *OrderService) Get(ctx context.Context, actor Actor, id uint64) (*model.Order, error) {
	o, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(o.UserID) {
		return nil, repository.ErrForbidden
	}
	return o, nil
}

func (s *OrderService) ListBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.store.Orders().ListBookingsByUser(ctx, userID)
}

func (s *OrderService) GetBooking(ctx context.Context, actor Actor, id uint64) (*model.Booking, error) {
	b, err := s.store.Orders().GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(b.UserID) {
		return nil, repository.ErrForbidden
	}
	return b, nil
}

func (s *OrderService) GetPurchase(ctx context.Context, actor Actor, id uint64) (*model.Purchase, error) {
	p, err := s.store.Orders().GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(p.UserID) {
		return nil, repository.ErrForbidden
	}
	return p, nil
}

// Cancel cancels an order with all its members in one transaction: booked
// seats go back to AVAILABLE, availability counters are restored and the
// order, bookings and purchase are flagged.  Orders whose showtime has
// started cannot be cancelled.  The payment is refunded after commit.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID uint64) (*model.Order, error) {
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.canAccess(o.UserID) {
			return repository.ErrForbidden
		}
		if o.Status == model.OrderCancelled {
			return fmt.Errorf("%w: %w", repository.ErrConflict, ErrAlreadyCancelled)
		}
		now := s.now()
		for _, b := range o.Bookings {
			st, err := tx.Showtimes().GetByID(ctx, b.ShowtimeID)
			if err != nil {
				return fmt.Errorf("showtime %d: %w", b.ShowtimeID, err)
			}
			if !now.Before(st.StartsAt) {
				return fmt.Errorf("%w: %w", repository.ErrConflict, ErrShowStarted)
			}
			n, err := tx.Seats().Release(ctx, b.ShowtimeID, b.SeatLabels, now)
			if err != nil {
				return fmt.Errorf("release seats: %w", err)
			}
			if n > 0 {
				if err := tx.Showtimes().AdjustAvailable(ctx, b.ShowtimeID, n); err != nil {
					return fmt.Errorf("adjust availability: %w", err)
				}
			}
		}
		return tx.Orders().MarkCancelled(ctx, o.ID, now)
	})
	if err != nil {
		return nil, err
	}

	o, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	log := logging.FromContext(ctx).WithField("order_code", o.Code)
	if !o.PaidAtBoxOffice() {
		if err := s.gateway.Refund(ctx, o.PaymentRef); err != nil && !errors.Is(err, payment.ErrIntentNotFound) {
			log.WithError(err).Error("refund cancelled order")
		}
	}
	metrics.Orders.WithLabelValues(strings.ToLower(model.OrderCancelled)).Inc()
	log.Info("order cancelled")
	s.notify.publish(ctx, o, queue.RoutingOrderCancelled)
	return o, nil
}

// CancelBooking cancels the whole order the booking belongs to.
func (s *OrderService) CancelBooking(ctx context.Context, actor Actor, bookingID uint64) (*model.Order, error) {
	b, err := s.GetBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	return s.Cancel(ctx, actor, b.OrderID)
}

// CancelPurchase cancels the whole order the purchase belongs to.
func (s *OrderService) CancelPurchase(ctx context.Context, actor Actor, purchaseID uint64) (*model.Order, error) {
	p, err := s.GetPurchase(ctx, actor, purchaseID)
	if err != nil {
		return nil, err
	}
	return s.Cancel(ctx, actor, p.OrderID)
}

// Receipt renders the receipt of an order the actor may see.
func (s *OrderService) Receipt(ctx context.Context, actor Actor, orderID uint64) (*receipt.Receipt, error) {
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	shows, err := showInfo(ctx, s.store, o)
	if err != nil {
		return nil, err
	}
	return s.receipts.Build(*o, shows, s.now())
}
