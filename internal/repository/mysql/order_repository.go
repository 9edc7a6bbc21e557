package mysql

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

const (
	orderColumns    = "id, code, user_id, payment_ref, total_cents, status, created_at, cancelled_at"
	bookingColumns  = "id, order_id, user_id, showtime_id, seat_labels, adult_count, child_count, total_cents, cancelled, cancelled_at, created_at"
	purchaseColumns = "id, order_id, user_id, total_cents, cancelled, cancelled_at, created_at"
	itemColumns     = "purchase_id, snack_id, name, quantity, unit_price_cents"
)

// OrderRepo persists orders, bookings, purchases and purchase items.
type OrderRepo struct{ x sqlx.ExtContext }

func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	id, err := insertID(r.x.ExecContext(ctx,
		"INSERT INTO orders (code, user_id, payment_ref, total_cents, status, created_at) VALUES (?,?,?,?,?,?)",
		o.Code, o.UserID, o.PaymentRef, o.TotalCents, o.Status, o.CreatedAt))
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

func (r *OrderRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	id, err := insertID(r.x.ExecContext(ctx,
		`INSERT INTO bookings (order_id, user_id, showtime_id, seat_labels, adult_count, child_count, total_cents, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		b.OrderID, b.UserID, b.ShowtimeID, b.SeatLabels, b.AdultCount, b.ChildCount, b.TotalCents, b.CreatedAt))
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// CreatePurchase inserts the purchase row and all of its items.
func (r *OrderRepo) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	id, err := insertID(r.x.ExecContext(ctx,
		"INSERT INTO purchases (order_id, user_id, total_cents, created_at) VALUES (?,?,?,?)",
		p.OrderID, p.UserID, p.TotalCents, p.CreatedAt))
	if err != nil {
		return err
	}
	p.ID = id
	if len(p.Items) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO purchase_items (" + itemColumns + ") VALUES ")
	args := make([]any, 0, len(p.Items)*5)
	for i := range p.Items {
		p.Items[i].PurchaseID = id
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?,?,?,?,?)")
		it := p.Items[i]
		args = append(args, it.PurchaseID, it.SnackID, it.Name, it.Quantity, it.UnitPriceCents)
	}
	_, err = r.x.ExecContext(ctx, b.String(), args...)
	return translate(err)
}

// load attaches bookings and the purchase to each order.
func (r *OrderRepo) load(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uint64, len(orders))
	index := make(map[uint64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Bookings = []model.Booking{}
		orders[i].Purchase = nil
	}

	q, args, err := sqlx.In("SELECT "+bookingColumns+" FROM bookings WHERE order_id IN (?) ORDER BY id", ids)
	if err != nil {
		return err
	}
	var bookings []model.Booking
	if err := sqlx.SelectContext(ctx, r.x, &bookings, r.x.Rebind(q), args...); err != nil {
		return err
	}
	for _, b := range bookings {
		o := &orders[index[b.OrderID]]
		o.Bookings = append(o.Bookings, b)
	}

	q, args, err = sqlx.In("SELECT "+purchaseColumns+" FROM purchases WHERE order_id IN (?)", ids)
	if err != nil {
		return err
	}
	var purchases []model.Purchase
	if err := sqlx.SelectContext(ctx, r.x, &purchases, r.x.Rebind(q), args...); err != nil {
		return err
	}
	for i := range purchases {
		if err := r.loadItems(ctx, &purchases[i]); err != nil {
			return err
		}
		p := purchases[i]
		orders[index[p.OrderID]].Purchase = &p
	}
	return nil
}

func (r *OrderRepo) loadItems(ctx context.Context, p *model.Purchase) error {
	p.Items = []model.PurchaseItem{}
	return sqlx.SelectContext(ctx, r.x, &p.Items,
		"SELECT "+itemColumns+" FROM purchase_items WHERE purchase_id = ? ORDER BY snack_id", p.ID)
}

func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	var o model.Order
	if err := sqlx.GetContext(ctx, r.x, &o, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id); err != nil {
		return nil, translate(err)
	}
	orders := []model.Order{o}
	if err := r.load(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	out := []model.Order{}
	if err := sqlx.SelectContext(ctx, r.x, &out,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY id DESC", userID); err != nil {
		return nil, err
	}
	return out, r.load(ctx, out)
}

func (r *OrderRepo) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	q, args := limitClause("SELECT "+orderColumns+" FROM orders ORDER BY id DESC", nil, limit, offset)
	out := []model.Order{}
	if err := sqlx.SelectContext(ctx, r.x, &out, q, args...); err != nil {
		return nil, err
	}
	return out, r.load(ctx, out)
}

func (r *OrderRepo) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	if err := sqlx.GetContext(ctx, r.x, &b, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *OrderRepo) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	out := []model.Booking{}
	if err := sqlx.SelectContext(ctx, r.x, &out,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id = ? ORDER BY id DESC", userID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrderRepo) GetPurchase(ctx context.Context, id uint64) (*model.Purchase, error) {
	var p model.Purchase
	if err := sqlx.GetContext(ctx, r.x, &p, "SELECT "+purchaseColumns+" FROM purchases WHERE id = ?", id); err != nil {
		return nil, translate(err)
	}
	if err := r.loadItems(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkCancelled flips a CONFIRMED order to CANCELLED along with its members.
// A second cancellation returns ErrConflict.
func (r *OrderRepo) MarkCancelled(ctx context.Context, orderID uint64, at time.Time) error {
	at = at.UTC()
	res, err := r.x.ExecContext(ctx,
		"UPDATE orders SET status = ?, cancelled_at = ? WHERE id = ? AND status = ?",
		model.OrderCancelled, at, orderID, model.OrderConfirmed)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := sqlx.GetContext(ctx, r.x, &exists, "SELECT EXISTS(SELECT 1 FROM orders WHERE id = ?)", orderID); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	if _, err := r.x.ExecContext(ctx,
		"UPDATE bookings SET cancelled = TRUE, cancelled_at = ? WHERE order_id = ?", at, orderID); err != nil {
		return err
	}
	_, err = r.x.ExecContext(ctx,
		"UPDATE purchases SET cancelled = TRUE, cancelled_at = ? WHERE order_id = ?", at, orderID)
	return err
}

func (r *OrderRepo) CountActiveBookings(ctx context.Context, showtimeID uint64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.x, &n,
		"SELECT COUNT(*) FROM bookings WHERE showtime_id = ? AND cancelled = FALSE", showtimeID)
	return n, err
}
