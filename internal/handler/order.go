package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// OrderHandler serves orders, bookings, purchases and receipts.  Customers
// reach their own records only; admins reach every record.
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.orders.ListMine(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// ListAll is the admin listing of every order.
func (h *OrderHandler) ListAll(c echo.Context) error {
	limit, offset, err := page(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.orders.ListAll(ctx, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.orders.Get(ctx, actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

// cancelled renders the order after a cancellation.
func cancelled(c echo.Context, o *model.Order) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "order cancelled", "order": o})
}

// Cancel cancels the whole order.  Once a booked showtime started the
// answer is 409.
func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.orders.Cancel(ctx, actor(c), id)
	if err != nil {
		return err
	}
	return cancelled(c, o)
}

// Receipt returns the receipt document with its QR code.
func (h *OrderHandler) Receipt(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.orders.Receipt(ctx, actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (h *OrderHandler) ListBookings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.orders.ListBookings(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) GetBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.orders.GetBooking(ctx, actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// CancelBooking cancels the order the booking belongs to.
func (h *OrderHandler) CancelBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.orders.CancelBooking(ctx, actor(c), id)
	if err != nil {
		return err
	}
	return cancelled(c, o)
}

func (h *OrderHandler) GetPurchase(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.orders.GetPurchase(ctx, actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// CancelPurchase cancels the order the purchase belongs to.
func (h *OrderHandler) CancelPurchase(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.orders.CancelPurchase(ctx, actor(c), id)
	if err != nil {
		return err
	}
	return cancelled(c, o)
}
