package model

import "time"

// Payment intent statuses, mirroring the usual card gateway lifecycle.
const (
	PaymentRequiresConfirmation = "requires_confirmation"
	PaymentSucceeded            = "succeeded"
	PaymentCanceled             = "canceled"
	PaymentRefunded             = "refunded"
)

// PaymentIntent is a gateway-side record of an amount the customer agreed to
// pay.  Checkout accepts an intent only once, after it has succeeded.
type PaymentIntent struct {
	ID           string    `json:"id"`
	UserID       uint64    `json:"userId"`
	AmountCents  int64     `json:"amountCents"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	ClientSecret string    `json:"clientSecret"`
	Consumed     bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
