package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/receipt"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// notifier turns committed orders into broker events.
type notifier struct {
	store    repository.Store
	pub      EventPublisher
	currency string
	now      clock
}

// showInfo loads the display names of the showtimes booked in o.
func showInfo(ctx context.Context, store repository.Store, o *model.Order) (map[uint64]receipt.ShowInfo, error) {
	out := make(map[uint64]receipt.ShowInfo, len(o.Bookings))
	for _, b := range o.Bookings {
		if _, ok := out[b.ShowtimeID]; ok {
			continue
		}
		st, err := store.Showtimes().GetByID(ctx, b.ShowtimeID)
		if err != nil {
			return nil, fmt.Errorf("showtime %d: %w", b.ShowtimeID, err)
		}
		info := receipt.ShowInfo{Showtime: *st}
		if m, err := store.Movies().GetByID(ctx, st.MovieID); err == nil {
			info.MovieTitle = m.Title
		}
		if h, err := store.Halls().GetByID(ctx, st.HallID); err == nil {
			info.HallName = h.Name
		}
		if c, err := store.Cinemas().GetByID(ctx, st.CinemaID); err == nil {
			info.CinemaName = c.Name
		}
		out[b.ShowtimeID] = info
	}
	return out, nil
}

func (n notifier) event(ctx context.Context, o *model.Order, routingKey string) (queue.OrderEvent, error) {
	ev := queue.NewOrderEvent(routingKey, n.now())
	ev.OrderID = o.ID
	ev.OrderCode = o.Code
	ev.UserID = o.UserID
	ev.TotalCents = o.TotalCents
	ev.Currency = n.currency
	ev.CorrelationID = logging.CorrelationIDFromContext(ctx)
	if u, err := n.store.Users().GetByID(ctx, o.UserID); err == nil {
		ev.UserEmail = u.Email
	}
	shows, err := showInfo(ctx, n.store, o)
	if err != nil {
		return ev, err
	}
	for _, b := range o.Bookings {
		info := shows[b.ShowtimeID]
		ev.Bookings = append(ev.Bookings, queue.BookingSummary{
			ShowtimeID: b.ShowtimeID,
			MovieTitle: info.MovieTitle,
			CinemaName: info.CinemaName,
			HallName:   info.HallName,
			StartsAt:   info.Showtime.StartsAt,
			Seats:      append([]string(nil), b.SeatLabels...),
			Adults:     b.AdultCount,
			Children:   b.ChildCount,
		})
	}
	if o.Purchase != nil {
		for _, it := range o.Purchase.Items {
			ev.Snacks = append(ev.Snacks, queue.SnackLine{Name: it.Name, Quantity: it.Quantity})
		}
	}
	return ev, nil
}

// publish never fails the caller: the order is already committed.
func (n notifier) publish(ctx context.Context, o *model.Order, routingKey string) {
	if n.pub == nil {
		return
	}
	log := logging.FromContext(ctx).WithField("order_code", o.Code).WithField("routing_key", routingKey)
	ev, err := n.event(ctx, o, routingKey)
	if err != nil {
		log.WithError(err).Warn("build order event")
	}
	if err := n.pub.PublishOrderEvent(ctx, ev); err != nil {
		log.WithError(err).Error("publish order event")
	}
}
