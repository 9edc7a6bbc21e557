package receipt

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

func sampleOrder() model.Order {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return model.Order{
		ID: 3, Code: "Zq9Lw", PaymentRef: "pi_1", TotalCents: 2500 + 1000, Status: model.OrderConfirmed, CreatedAt: at,
		Bookings: []model.Booking{{
			ID: 1, OrderID: 3, ShowtimeID: 9, SeatLabels: model.Labels{"B1", "B2"},
			AdultCount: 1, ChildCount: 1, TotalCents: 1000 + 500,
		}, {
			ID: 2, OrderID: 3, ShowtimeID: 9, SeatLabels: model.Labels{"C1"},
			AdultCount: 1, TotalCents: 1000,
		}},
		Purchase: &model.Purchase{ID: 4, OrderID: 3, TotalCents: 1000, Items: []model.PurchaseItem{
			{SnackID: 1, Name: "Popcorn", Quantity: 2, UnitPriceCents: 350},
			{SnackID: 2, Name: "Soda", Quantity: 1, UnitPriceCents: 300},
		}},
	}
}

func TestBuild(t *testing.T) {
	shows := map[uint64]ShowInfo{9: {
		Showtime:   model.Showtime{ID: 9, StartsAt: time.Date(2026, 5, 2, 20, 0, 0, 0, time.UTC), PriceCents: 1000},
		MovieTitle: "Heat", CinemaName: "Roxy", HallName: "Hall 1",
	}}
	r, err := NewBuilder("usd").Build(sampleOrder(), shows, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "USD", r.Currency)
	assert.Equal(t, "CINEMA-ORDER:Zq9Lw", r.QRPayload)
	require.Len(t, r.Lines, 4)
	assert.Equal(t, KindTicket, r.Lines[0].Kind)
	assert.Equal(t, "Heat - Roxy, Hall 1 - 2026-05-02 20:00 UTC", r.Lines[0].Description)
	assert.Equal(t, []string{"B1", "B2"}, r.Lines[0].Seats)
	assert.Equal(t, int64(700), r.Lines[2].TotalCents)
	assert.Equal(t, int64(2500), r.TicketsCents)
	assert.Equal(t, int64(1000), r.SnacksCents)
	assert.Equal(t, r.TicketsCents+r.SnacksCents, r.TotalCents)

	png, err := base64.StdEncoding.DecodeString(r.QRCodePNG)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

type failingQR struct{}

func (failingQR) Generate(string) ([]byte, error) { return nil, errors.New("boom") }

func TestBuildErrors(t *testing.T) {
	_, err := NewBuilder("usd").Build(sampleOrder(), map[uint64]ShowInfo{}, time.Now())
	assert.Error(t, err)

	o := sampleOrder()
	o.Bookings = nil
	_, err = NewBuilderWithQR("usd", failingQR{}).Build(o, nil, time.Now())
	assert.ErrorContains(t, err, "qr code")
}
