package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsNotification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notifications.log")
	c := NewConsumer("", "cinema.events", "q", path)

	ev := NewOrderEvent(RoutingOrderConfirmed, time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC))
	ev.OrderCode = "X7kP2"
	ev.UserEmail = "fan@example.com"
	ev.TotalCents = 2150
	ev.Currency = "usd"
	ev.Bookings = append(ev.Bookings, BookingSummary{
		MovieTitle: "Heat", CinemaName: "Roxy", HallName: "1",
		StartsAt: time.Date(2026, 5, 2, 20, 0, 0, 0, time.UTC),
		Seats:    []string{"A1", "A2"},
	})
	ev.Snacks = append(ev.Snacks, SnackLine{Name: "Popcorn", Quantity: 2})
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, c.handleMessage(body))

	cancelled := ev
	cancelled.Type = RoutingOrderCancelled
	body, err = json.Marshal(cancelled)
	require.NoError(t, err)
	require.NoError(t, c.handleMessage(body))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Order confirmed | order=X7kP2 | to=fan@example.com | total=2150 USD")
	assert.Contains(t, lines[0], "seats=[A1,A2]")
	assert.Contains(t, lines[0], "2x Popcorn")
	assert.Contains(t, lines[1], "Order cancelled")
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := NewConsumer("", "x", "q", filepath.Join(t.TempDir(), "n.log"))
	assert.Error(t, c.handleMessage([]byte("{not json")))

	body, err := json.Marshal(OrderEvent{Type: "order.exploded"})
	require.NoError(t, err)
	assert.Error(t, c.handleMessage(body))
}
