package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

type orderRepo struct{ s *Store }

// assemble attaches bookings and the purchase to a stored order.
func assemble(d *data, o model.Order) model.Order {
	o.Bookings = []model.Booking{}
	for _, id := range sortedKeys(d.bookings) {
		b := d.bookings[id]
		if b.OrderID == o.ID {
			b.SeatLabels = append(model.Labels(nil), b.SeatLabels...)
			o.Bookings = append(o.Bookings, b)
		}
	}
	o.Purchase = nil
	for _, p := range d.purchases {
		if p.OrderID == o.ID {
			p.Items = append([]model.PurchaseItem(nil), p.Items...)
			o.Purchase = &p
			break
		}
	}
	return o
}

func newestFirst(ids []uint64) []uint64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}

func (r orderRepo) Create(_ context.Context, o *model.Order) error {
	defer r.s.lock()()
	d := r.s.d()
	o.ID = d.next("orders")
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now()
	}
	stored := *o
	stored.Bookings, stored.Purchase = nil, nil
	d.orders[o.ID] = stored
	return nil
}

func (r orderRepo) CreateBooking(_ context.Context, b *model.Booking) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.orders[b.OrderID]; !ok {
		return repository.ErrNotFound
	}
	b.ID = d.next("bookings")
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now()
	}
	stored := *b
	stored.SeatLabels = append(model.Labels(nil), b.SeatLabels...)
	d.bookings[b.ID] = stored
	return nil
}

func (r orderRepo) CreatePurchase(_ context.Context, p *model.Purchase) error {
	defer r.s.lock()()
	d := r.s.d()
	if _, ok := d.orders[p.OrderID]; !ok {
		return repository.ErrNotFound
	}
	p.ID = d.next("purchases")
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	for i := range p.Items {
		p.Items[i].PurchaseID = p.ID
	}
	stored := *p
	stored.Items = append([]model.PurchaseItem(nil), p.Items...)
	d.purchases[p.ID] = stored
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id uint64) (*model.Order, error) {
	defer r.s.lock()()
	d := r.s.d()
	o, ok := d.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o = assemble(d, o)
	return &o, nil
}

func (r orderRepo) ListByUser(_ context.Context, userID uint64) ([]model.Order, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Order{}
	for _, id := range newestFirst(sortedKeys(d.orders)) {
		if o := d.orders[id]; o.UserID == userID {
			out = append(out, assemble(d, o))
		}
	}
	return out, nil
}

func (r orderRepo) List(_ context.Context, limit, offset int) ([]model.Order, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Order{}
	for _, id := range newestFirst(sortedKeys(d.orders)) {
		out = append(out, assemble(d, d.orders[id]))
	}
	return page(out, limit, offset), nil
}

func (r orderRepo) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	defer r.s.lock()()
	b, ok := r.s.d().bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b.SeatLabels = append(model.Labels(nil), b.SeatLabels...)
	return &b, nil
}

func (r orderRepo) ListBookingsByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	defer r.s.lock()()
	d := r.s.d()
	out := []model.Booking{}
	for _, id := range newestFirst(sortedKeys(d.bookings)) {
		b := d.bookings[id]
		if b.UserID == userID {
			b.SeatLabels = append(model.Labels(nil), b.SeatLabels...)
			out = append(out, b)
		}
	}
	return out, nil
}

func (r orderRepo) GetPurchase(_ context.Context, id uint64) (*model.Purchase, error) {
	defer r.s.lock()()
	p, ok := r.s.d().purchases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Items = append([]model.PurchaseItem(nil), p.Items...)
	return &p, nil
}

func (r orderRepo) MarkCancelled(_ context.Context, orderID uint64, at time.Time) error {
	defer r.s.lock()()
	d := r.s.d()
	o, ok := d.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status == model.OrderCancelled {
		return repository.ErrConflict
	}
	ts := at
	o.Status = model.OrderCancelled
	o.CancelledAt = &ts
	d.orders[orderID] = o
	for id, b := range d.bookings {
		if b.OrderID == orderID {
			b.Cancelled = true
			b.CancelledAt = &ts
			d.bookings[id] = b
		}
	}
	for id, p := range d.purchases {
		if p.OrderID == orderID {
			p.Cancelled = true
			p.CancelledAt = &ts
			d.purchases[id] = p
		}
	}
	return nil
}

func (r orderRepo) CountActiveBookings(_ context.Context, showtimeID uint64) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, b := range r.s.d().bookings {
		if b.ShowtimeID == showtimeID && !b.Cancelled {
			n++
		}
	}
	return n, nil
}
