// Package service implements the business rules of the ticketing API on top
// of repository.Store.  Multi-record writes run inside Store.Atomic; events
// are published only after the transaction committed.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
)

var (
	// ErrValidation wraps every input problem the handlers report as 400.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned by Login and Refresh.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned for deactivated users.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrShowNotSellable is returned when seats of a cancelled, completed or
	// started showtime are locked or bought.
	ErrShowNotSellable = errors.New("showtime is not open for sale")
	// ErrShowStarted is returned when cancelling an order after its showtime began.
	ErrShowStarted = errors.New("showtime has already started")
	// ErrAlreadyCancelled is returned when cancelling a cancelled order.
	ErrAlreadyCancelled = errors.New("order is already cancelled")
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint64
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// canAccess reports whether the actor may read or change a record of owner.
func (a Actor) canAccess(owner uint64) bool {
	return a.IsAdmin() || (a.UserID != 0 && a.UserID == owner)
}

// EventPublisher hands order events to the broker.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev queue.OrderEvent) error
}

type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
