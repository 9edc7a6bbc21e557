package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

func TestSandboxLifecycle(t *testing.T) {
	ctx := context.Background()
	gw := NewSandbox()

	pi, err := gw.CreateIntent(ctx, 7, 2500, "USD")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRequiresConfirmation, pi.Status)
	assert.Equal(t, "usd", pi.Currency)
	assert.Contains(t, pi.ClientSecret, pi.ID+"_secret_")

	assert.ErrorIs(t, gw.Consume(ctx, pi.ID, 7, 2500), ErrNotSucceeded)

	_, err = gw.Confirm(ctx, pi.ID, 8, "pm_card_visa")
	assert.ErrorIs(t, err, ErrIntentNotFound, "other users cannot see the intent")

	pi, err = gw.Confirm(ctx, pi.ID, 7, "pm_card_visa")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSucceeded, pi.Status)

	assert.ErrorIs(t, gw.Consume(ctx, pi.ID, 7, 2400), ErrAmountMismatch)
	require.NoError(t, gw.Consume(ctx, pi.ID, 7, 2500))
	assert.ErrorIs(t, gw.Consume(ctx, pi.ID, 7, 2500), ErrAlreadyUsed)

	require.NoError(t, gw.Refund(ctx, pi.ID))
	require.NoError(t, gw.Refund(ctx, pi.ID))
	got, err := gw.Get(ctx, pi.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, got.Status)
}

func TestSandboxDecline(t *testing.T) {
	ctx := context.Background()
	gw := NewSandbox()

	_, err := gw.CreateIntent(ctx, 1, 0, "usd")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	pi, err := gw.CreateIntent(ctx, 1, 100, "usd")
	require.NoError(t, err)
	_, err = gw.Confirm(ctx, pi.ID, 1, DeclineMethod)
	assert.ErrorIs(t, err, ErrDeclined)
	_, err = gw.Confirm(ctx, pi.ID, 1, "pm_card_visa")
	assert.ErrorIs(t, err, ErrDeclined)
	assert.ErrorIs(t, gw.Refund(ctx, pi.ID), ErrNotSucceeded)
	assert.ErrorIs(t, gw.Refund(ctx, "pi_missing"), ErrIntentNotFound)
}
