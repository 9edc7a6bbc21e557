package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Order statuses.
const (
	OrderConfirmed = "CONFIRMED"
	OrderCancelled = "CANCELLED"
)

// boxOfficePrefix marks the payment reference of orders settled at the
// counter rather than through a payment intent.
const boxOfficePrefix = "box-office:"

// BoxOfficeRef is the payment reference of a counter sale with the given code.
func BoxOfficeRef(code string) string { return boxOfficePrefix + code }

// Order groups the bookings and the snack purchase created by one checkout.
// Cancelling any member cancels the whole order.
type Order struct {
	ID          uint64     `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	UserID      uint64     `db:"user_id" json:"userId"`
	PaymentRef  string     `db:"payment_ref" json:"paymentRef"`
	TotalCents  int64      `db:"total_cents" json:"totalCents"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	Bookings    []Booking  `db:"-" json:"bookings"`
	Purchase    *Purchase  `db:"-" json:"purchase,omitempty"`
}

// Booking records the tickets bought for one showtime.
type Booking struct {
	ID          uint64     `db:"id" json:"id"`
	OrderID     uint64     `db:"order_id" json:"orderId"`
	UserID      uint64     `db:"user_id" json:"userId"`
	ShowtimeID  uint64     `db:"showtime_id" json:"showtimeId"`
	SeatLabels  Labels     `db:"seat_labels" json:"seatLabels"`
	AdultCount  int        `db:"adult_count" json:"adultCount"`
	ChildCount  int        `db:"child_count" json:"childCount"`
	TotalCents  int64      `db:"total_cents" json:"totalCents"`
	Cancelled   bool       `db:"cancelled" json:"cancelled"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// Purchase records the snacks bought in an order.
type Purchase struct {
	ID          uint64         `db:"id" json:"id"`
	OrderID     uint64         `db:"order_id" json:"orderId"`
	UserID      uint64         `db:"user_id" json:"userId"`
	Items       []PurchaseItem `db:"-" json:"items"`
	TotalCents  int64          `db:"total_cents" json:"totalCents"`
	Cancelled   bool           `db:"cancelled" json:"cancelled"`
	CancelledAt *time.Time     `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// PurchaseItem snapshots a snack's name and price at checkout time.
type PurchaseItem struct {
	PurchaseID     uint64 `db:"purchase_id" json:"-"`
	SnackID        uint64 `db:"snack_id" json:"snackId"`
	Name           string `db:"name" json:"name"`
	Quantity       int    `db:"quantity" json:"quantity"`
	UnitPriceCents int64  `db:"unit_price_cents" json:"unitPriceCents"`
}

// LineTotal is Quantity * UnitPriceCents.
func (i PurchaseItem) LineTotal() int64 { return int64(i.Quantity) * i.UnitPriceCents }

// PaidAtBoxOffice reports whether the order was settled at the counter.
func (o Order) PaidAtBoxOffice() bool { return strings.HasPrefix(o.PaymentRef, boxOfficePrefix) }

// Clone returns a deep copy of the order and its members.
func (o Order) Clone() Order {
	c := o
	c.Bookings = make([]Booking, len(o.Bookings))
	for i, b := range o.Bookings {
		b.SeatLabels = append(Labels(nil), b.SeatLabels...)
		c.Bookings[i] = b
	}
	if o.Purchase != nil {
		p := *o.Purchase
		p.Items = append([]PurchaseItem(nil), o.Purchase.Items...)
		c.Purchase = &p
	}
	return c
}

// Labels is a list of seat labels stored as a JSON array column.
type Labels []string

// Value implements driver.Valuer.
func (l Labels) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *Labels) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(l))
	}
	return fmt.Errorf("labels: unsupported scan type %T", src)
}
