// Package payment wraps the payment provider behind the Gateway interface.
// Only the in-process Sandbox is implemented; it follows the usual
// intent -> confirm -> capture lifecycle of card gateways.
package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

var (
	ErrIntentNotFound = errors.New("payment intent not found")
	ErrDeclined       = errors.New("payment declined")
	ErrNotSucceeded   = errors.New("payment intent has not succeeded")
	ErrAlreadyUsed    = errors.New("payment intent already used")
	ErrAmountMismatch = errors.New("payment amount does not match order total")
	ErrInvalidAmount  = errors.New("payment amount must be positive")
)

// DeclineMethod is the sandbox payment method that always fails.
const DeclineMethod = "pm_card_declined"

// Gateway is the subset of a card gateway checkout needs.
type Gateway interface {
	CreateIntent(ctx context.Context, userID uint64, amountCents int64, currency string) (*model.PaymentIntent, error)
	// Confirm performs the client side confirmation step.
	Confirm(ctx context.Context, id string, userID uint64, method string) (*model.PaymentIntent, error)
	Get(ctx context.Context, id string, userID uint64) (*model.PaymentIntent, error)
	// Consume marks a succeeded intent as used by exactly one order.
	Consume(ctx context.Context, id string, userID uint64, amountCents int64) error
	// Refund returns the money of a succeeded intent.  Refunding twice is a no-op.
	Refund(ctx context.Context, id string) error
}

// Sandbox is an in-memory Gateway.
type Sandbox struct {
	mu      sync.Mutex
	intents map[string]*model.PaymentIntent
	now     func() time.Time
}

func NewSandbox() *Sandbox {
	return &Sandbox{intents: make(map[string]*model.PaymentIntent), now: time.Now}
}

func (s *Sandbox) CreateIntent(_ context.Context, userID uint64, amountCents int64, currency string) (*model.PaymentIntent, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	pi := &model.PaymentIntent{
		ID:           id,
		UserID:       userID,
		AmountCents:  amountCents,
		Currency:     strings.ToLower(currency),
		Status:       model.PaymentRequiresConfirmation,
		ClientSecret: id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		CreatedAt:    s.now().UTC(),
	}
	s.mu.Lock()
	s.intents[id] = pi
	s.mu.Unlock()
	out := *pi
	return &out, nil
}

func (s *Sandbox) Confirm(_ context.Context, id string, userID uint64, method string) (*model.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}
	switch pi.Status {
	case model.PaymentSucceeded:
		out := *pi
		return &out, nil
	case model.PaymentRequiresConfirmation:
	default:
		return nil, ErrDeclined
	}
	if method == DeclineMethod {
		pi.Status = model.PaymentCanceled
		return nil, ErrDeclined
	}
	pi.Status = model.PaymentSucceeded
	out := *pi
	return &out, nil
}

func (s *Sandbox) Get(_ context.Context, id string, userID uint64) (*model.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}
	out := *pi
	return &out, nil
}

func (s *Sandbox) Consume(_ context.Context, id string, userID uint64, amountCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, err := s.owned(id, userID)
	if err != nil {
		return err
	}
	switch {
	case pi.Status != model.PaymentSucceeded:
		return ErrNotSucceeded
	case pi.Consumed:
		return ErrAlreadyUsed
	case pi.AmountCents != amountCents:
		return ErrAmountMismatch
	}
	pi.Consumed = true
	return nil
}

func (s *Sandbox) Refund(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, ok := s.intents[id]
	if !ok {
		return ErrIntentNotFound
	}
	switch pi.Status {
	case model.PaymentRefunded:
		return nil
	case model.PaymentSucceeded:
		pi.Status = model.PaymentRefunded
		return nil
	}
	return ErrNotSucceeded
}

// owned hides intents of other users behind ErrIntentNotFound.
func (s *Sandbox) owned(id string, userID uint64) (*model.PaymentIntent, error) {
	pi, ok := s.intents[id]
	if !ok || pi.UserID != userID {
		return nil, ErrIntentNotFound
	}
	return pi, nil
}
