package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/shortuuid/v3"
	"github.com/samber/lo"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/metrics"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// CartSnack is one snack line of a cart.
type CartSnack struct {
	SnackID  uint64
	Quantity int
}

// Cart is what the customer wants to buy: seats of one showtime they hold
// locks on, and snacks.  Either part may be empty but not both.
type Cart struct {
	ShowtimeID uint64
	Seats      []string
	AdultCount int
	ChildCount int
	Snacks     []CartSnack
}

// Quote is the priced cart.
type Quote struct {
	ShowtimeID      uint64               `json:"showtimeId,omitempty"`
	Seats           []string             `json:"seats"`
	AdultCount      int                  `json:"adultCount"`
	ChildCount      int                  `json:"childCount"`
	PriceCents      int64                `json:"priceCents"`
	ChildPriceCents int64                `json:"childPriceCents"`
	TicketsCents    int64                `json:"ticketsCents"`
	Items           []model.PurchaseItem `json:"items"`
	SnacksCents     int64                `json:"snacksCents"`
	TotalCents      int64                `json:"totalCents"`
	Currency        string               `json:"currency"`
}

// CheckoutService prices carts, collects payment and turns seat locks into
// orders.
type CheckoutService struct {
	store    repository.Store
	gateway  payment.Gateway
	notify   notifier
	currency string
	now      clock
}

func NewCheckoutService(store repository.Store, gw payment.Gateway, pub EventPublisher, currency string) *CheckoutService {
	currency = strings.ToLower(currency)
	return &CheckoutService{
		store:    store,
		gateway:  gw,
		notify:   notifier{store: store, pub: pub, currency: currency, now: utcNow},
		currency: currency,
		now:      utcNow,
	}
}

// Quote prices a cart for userID.  Every seat must be locked by the user.
func (s *CheckoutService) Quote(ctx context.Context, userID uint64, cart Cart) (*Quote, error) {
	return s.quote(ctx, s.store, userID, cart)
}

func (s *CheckoutService) quote(ctx context.Context, tx repository.Store, userID uint64, cart Cart) (*Quote, error) {
	q := &Quote{Currency: s.currency, Seats: []string{}, Items: []model.PurchaseItem{}}
	seats := lo.Map(cart.Seats, func(l string, _ int) string { return strings.ToUpper(strings.TrimSpace(l)) })
	if len(seats) == 0 && len(cart.Snacks) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	if len(lo.Uniq(seats)) != len(seats) || lo.Contains(seats, "") {
		return nil, fmt.Errorf("%w: seat labels must be unique and non-empty", ErrValidation)
	}

	if len(seats) > 0 {
		now := s.now()
		st, err := sellable(ctx, tx, cart.ShowtimeID, now)
		if err != nil {
			return nil, err
		}
		total, err := model.TicketTotal(st.PriceCents, len(seats), cart.AdultCount, cart.ChildCount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		held, err := tx.Seats().LockedBy(ctx, st.ID, userID, now)
		if err != nil {
			return nil, fmt.Errorf("locked seats: %w", err)
		}
		if missing := lo.Without(seats, held...); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", repository.ErrSeatNotLocked, strings.Join(missing, ", "))
		}
		q.ShowtimeID = st.ID
		q.Seats = seats
		q.AdultCount, q.ChildCount = cart.AdultCount, cart.ChildCount
		q.PriceCents = st.PriceCents
		q.ChildPriceCents = model.ChildPrice(st.PriceCents)
		q.TicketsCents = total
	} else if cart.ShowtimeID != 0 || cart.AdultCount != 0 || cart.ChildCount != 0 {
		return nil, fmt.Errorf("%w: tickets need seat labels", ErrValidation)
	}

	if len(cart.Snacks) > 0 {
		items, err := s.snackItems(ctx, tx, cart.Snacks)
		if err != nil {
			return nil, err
		}
		q.Items = items
		q.SnacksCents = model.SnackTotal(items)
	}
	q.TotalCents = q.TicketsCents + q.SnacksCents
	return q, nil
}

// snackItems merges repeated snack ids and snapshots name and price.
func (s *CheckoutService) snackItems(ctx context.Context, tx repository.Store, lines []CartSnack) ([]model.PurchaseItem, error) {
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: snack quantity must be positive", ErrValidation)
		}
	}
	ids := lo.Uniq(lo.Map(lines, func(l CartSnack, _ int) uint64 { return l.SnackID }))
	qty := lo.MapValues(lo.GroupBy(lines, func(l CartSnack) uint64 { return l.SnackID }),
		func(ls []CartSnack, _ uint64) int { return lo.SumBy(ls, func(l CartSnack) int { return l.Quantity }) })

	snacks, err := tx.Snacks().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load snacks: %w", err)
	}
	byID := lo.KeyBy(snacks, func(sn model.Snack) uint64 { return sn.ID })
	items := make([]model.PurchaseItem, 0, len(ids))
	for _, id := range ids {
		sn, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("snack %d: %w", id, repository.ErrNotFound)
		}
		if !sn.IsAvailable {
			return nil, fmt.Errorf("%w: %s is not available", ErrValidation, sn.Name)
		}
		items = append(items, model.PurchaseItem{
			SnackID:        sn.ID,
			Name:           sn.Name,
			Quantity:       qty[id],
			UnitPriceCents: sn.PriceCents,
		})
	}
	return items, nil
}

// CreateIntent prices the cart and opens a payment intent for the total.
func (s *CheckoutService) CreateIntent(ctx context.Context, userID uint64, cart Cart) (*Quote, *model.PaymentIntent, error) {
	q, err := s.Quote(ctx, userID, cart)
	if err != nil {
		return nil, nil, err
	}
	pi, err := s.gateway.CreateIntent(ctx, userID, q.TotalCents, s.currency)
	if err != nil {
		return nil, nil, err
	}
	return q, pi, nil
}

// ConfirmIntent performs the sandbox client side confirmation.
func (s *CheckoutService) ConfirmIntent(ctx context.Context, userID uint64, intentID, method string) (*model.PaymentIntent, error) {
	return s.gateway.Confirm(ctx, intentID, userID, method)
}

// Checkout turns a paid cart into an order.  The intent must have succeeded,
// belong to the user, be unused and match the quote.  Seat confirmation,
// availability counters and the order records are written in one
// transaction; if it fails the payment is refunded.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint64, cart Cart, intentID string) (*model.Order, error) {
	log := logging.FromContext(ctx).WithField("user_id", userID)
	q, err := s.Quote(ctx, userID, cart)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.Consume(ctx, intentID, userID, q.TotalCents); err != nil {
		return nil, err
	}

	var orderID uint64
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		now := s.now()
		fresh, err := s.quote(ctx, tx, userID, cart)
		if err != nil {
			return err
		}
		if fresh.TotalCents != q.TotalCents {
			return payment.ErrAmountMismatch
		}
		for _, label := range fresh.Seats {
			if err := tx.Seats().Confirm(ctx, fresh.ShowtimeID, label, userID, now); err != nil {
				return fmt.Errorf("seat %s: %w", label, err)
			}
		}
		if n := len(fresh.Seats); n > 0 {
			if err := tx.Showtimes().AdjustAvailable(ctx, fresh.ShowtimeID, -n); err != nil {
				return fmt.Errorf("adjust availability: %w", err)
			}
		}

		o := &model.Order{
			Code:       shortuuid.New()[:10],
			UserID:     userID,
			PaymentRef: intentID,
			TotalCents: fresh.TotalCents,
			Status:     model.OrderConfirmed,
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if len(fresh.Seats) > 0 {
			b := &model.Booking{
				OrderID:    o.ID,
				UserID:     userID,
				ShowtimeID: fresh.ShowtimeID,
				SeatLabels: model.Labels(fresh.Seats),
				AdultCount: fresh.AdultCount,
				ChildCount: fresh.ChildCount,
				TotalCents: fresh.TicketsCents,
			}
			if err := tx.Orders().CreateBooking(ctx, b); err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
		}
		if len(fresh.Items) > 0 {
			p := &model.Purchase{
				OrderID:    o.ID,
				UserID:     userID,
				Items:      fresh.Items,
				TotalCents: fresh.SnacksCents,
			}
			if err := tx.Orders().CreatePurchase(ctx, p); err != nil {
				return fmt.Errorf("create purchase: %w", err)
			}
		}
		orderID = o.ID
		return nil
	})
	if err != nil {
		metrics.Orders.WithLabelValues("failed").Inc()
		if rerr := s.gateway.Refund(ctx, intentID); rerr != nil {
			log.WithError(rerr).WithField("payment_ref", intentID).Error("refund after failed checkout")
		} else {
			log.WithError(err).WithField("payment_ref", intentID).Warn("checkout failed, payment refunded")
		}
		return nil, err
	}

	o, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	metrics.Orders.WithLabelValues(strings.ToLower(model.OrderConfirmed)).Inc()
	log.WithField("order_code", o.Code).Info("order confirmed")
	s.notify.publish(ctx, o, queue.RoutingOrderConfirmed)
	return o, nil
}

// IsPaymentError reports whether err comes from the payment gateway.
func IsPaymentError(err error) bool {
	for _, target := range []error{
		payment.ErrIntentNotFound, payment.ErrDeclined, payment.ErrNotSucceeded,
		payment.ErrAlreadyUsed, payment.ErrAmountMismatch, payment.ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
