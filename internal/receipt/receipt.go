// Package receipt renders the customer receipt of an order: ticket and snack
// lines, totals and a QR code that encodes the order code for entry scanning.
package receipt

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// QRPrefix is prepended to the order code in the QR payload.
const QRPrefix = "CINEMA-ORDER:"

// Line kinds.
const (
	KindTicket = "ticket"
	KindSnack  = "snack"
)

// ShowInfo carries the names printed on a ticket line.
type ShowInfo struct {
	Showtime   model.Showtime
	MovieTitle string
	CinemaName string
	HallName   string
}

// Line is one row of the receipt.  Ticket lines describe one booking.
type Line struct {
	Kind           string   `json:"kind"`
	Description    string   `json:"description"`
	Seats          []string `json:"seats,omitempty"`
	Adults         int      `json:"adults,omitempty"`
	Children       int      `json:"children,omitempty"`
	Quantity       int      `json:"quantity"`
	UnitPriceCents int64    `json:"unitPriceCents,omitempty"`
	TotalCents     int64    `json:"totalCents"`
	Cancelled      bool     `json:"cancelled"`
}

// Receipt is the JSON document returned by the receipt endpoint.
type Receipt struct {
	OrderID      uint64    `json:"orderId"`
	OrderCode    string    `json:"orderCode"`
	Status       string    `json:"status"`
	PaymentRef   string    `json:"paymentRef"`
	Currency     string    `json:"currency"`
	Lines        []Line    `json:"lines"`
	TicketsCents int64     `json:"ticketsCents"`
	SnacksCents  int64     `json:"snacksCents"`
	TotalCents   int64     `json:"totalCents"`
	PurchasedAt  time.Time `json:"purchasedAt"`
	IssuedAt     time.Time `json:"issuedAt"`
	QRPayload    string    `json:"qrPayload"`
	QRCodePNG    string    `json:"qrCodePng"` // base64
}

// QRGenerator encodes a payload as PNG.
type QRGenerator interface {
	Generate(data string) ([]byte, error)
}

type defaultQR struct{}

func (defaultQR) Generate(data string) ([]byte, error) {
	return qrcode.Encode(data, qrcode.Medium, 256)
}

// Builder assembles receipts.
type Builder struct {
	qr       QRGenerator
	currency string
}

func NewBuilder(currency string) *Builder {
	return &Builder{qr: defaultQR{}, currency: strings.ToUpper(currency)}
}

// NewBuilderWithQR lets tests substitute the QR encoder.
func NewBuilderWithQR(currency string, qr QRGenerator) *Builder {
	return &Builder{qr: qr, currency: strings.ToUpper(currency)}
}

// Build renders o.  shows must contain an entry for every booked showtime.
func (b *Builder) Build(o model.Order, shows map[uint64]ShowInfo, issuedAt time.Time) (*Receipt, error) {
	r := &Receipt{
		OrderID:     o.ID,
		OrderCode:   o.Code,
		Status:      o.Status,
		PaymentRef:  o.PaymentRef,
		Currency:    b.currency,
		Lines:       make([]Line, 0, len(o.Bookings)+4),
		TotalCents:  o.TotalCents,
		PurchasedAt: o.CreatedAt,
		IssuedAt:    issuedAt.UTC(),
		QRPayload:   QRPrefix + o.Code,
	}

	for _, bk := range o.Bookings {
		info, ok := shows[bk.ShowtimeID]
		if !ok {
			return nil, fmt.Errorf("receipt: missing showtime %d", bk.ShowtimeID)
		}
		r.Lines = append(r.Lines, Line{
			Kind: KindTicket,
			Description: fmt.Sprintf("%s - %s, %s - %s",
				info.MovieTitle, info.CinemaName, info.HallName,
				info.Showtime.StartsAt.UTC().Format("2006-01-02 15:04 MST")),
			Seats:      append([]string(nil), bk.SeatLabels...),
			Adults:     bk.AdultCount,
			Children:   bk.ChildCount,
			Quantity:   len(bk.SeatLabels),
			TotalCents: bk.TotalCents,
			Cancelled:  bk.Cancelled,
		})
		r.TicketsCents += bk.TotalCents
	}
	if p := o.Purchase; p != nil {
		for _, it := range p.Items {
			r.Lines = append(r.Lines, Line{
				Kind:           KindSnack,
				Description:    it.Name,
				Quantity:       it.Quantity,
				UnitPriceCents: it.UnitPriceCents,
				TotalCents:     it.LineTotal(),
				Cancelled:      p.Cancelled,
			})
			r.SnacksCents += it.LineTotal()
		}
	}

	png, err := b.qr.Generate(r.QRPayload)
	if err != nil {
		return nil, fmt.Errorf("receipt: qr code: %w", err)
	}
	r.QRCodePNG = base64.StdEncoding.EncodeToString(png)
	return r, nil
}
