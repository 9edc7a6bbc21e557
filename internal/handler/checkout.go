package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// CheckoutHandler serves payment intents and checkout.
type CheckoutHandler struct {
	checkout *service.CheckoutService
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type cartSnackReq struct {
	SnackID  uint64 `json:"snackId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0,lte=50"`
}

type cartReq struct {
	ShowtimeID uint64         `json:"showtimeId"`
	Seats      []string       `json:"seats" validate:"max=20,dive,required,max=8"`
	AdultCount int            `json:"adultCount" validate:"gte=0"`
	ChildCount int            `json:"childCount" validate:"gte=0"`
	Snacks     []cartSnackReq `json:"snacks" validate:"max=50,dive"`
}

func (r cartReq) cart() service.Cart {
	return service.Cart{
		ShowtimeID: r.ShowtimeID,
		Seats:      r.Seats,
		AdultCount: r.AdultCount,
		ChildCount: r.ChildCount,
		Snacks: lo.Map(r.Snacks, func(s cartSnackReq, _ int) service.CartSnack {
			return service.CartSnack{SnackID: s.SnackID, Quantity: s.Quantity}
		}),
	}
}

type checkoutReq struct {
	cartReq
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

type confirmIntentReq struct {
	PaymentMethod string `json:"paymentMethod"`
}

type intentResp struct {
	Quote  *service.Quote       `json:"quote"`
	Intent *model.PaymentIntent `json:"paymentIntent"`
}

// Quote prices a cart without charging anything.
func (h *CheckoutHandler) Quote(c echo.Context) error {
	var req cartReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	q, err := h.checkout.Quote(ctx, middleware.UserID(c), req.cart())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q)
}

// CreateIntent prices the cart and opens a payment intent for the total.
func (h *CheckoutHandler) CreateIntent(c echo.Context) error {
	var req cartReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	q, pi, err := h.checkout.CreateIntent(ctx, middleware.UserID(c), req.cart())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, intentResp{Quote: q, Intent: pi})
}

// ConfirmIntent is the sandbox stand-in for client side card confirmation.
func (h *CheckoutHandler) ConfirmIntent(c echo.Context) error {
	var req confirmIntentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pi, err := h.checkout.ConfirmIntent(ctx, middleware.UserID(c), c.Param("id"), req.PaymentMethod)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pi)
}

// Checkout turns the caller's locks and snacks into a paid order.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	var req checkoutReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	order, err := h.checkout.Checkout(ctx, middleware.UserID(c), req.cart(), req.PaymentIntentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}
