package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// SeatHandler serves the seat map and the lock/confirm/unlock flow.
type SeatHandler struct {
	seats     *service.SeatService
	showtimes *service.ShowtimeService
}

func NewSeatHandler(seats *service.SeatService, showtimes *service.ShowtimeService) *SeatHandler {
	return &SeatHandler{seats: seats, showtimes: showtimes}
}

type seatReq struct {
	ShowID    uint64 `json:"showId" validate:"required"`
	SeatLabel string `json:"seatLabel" validate:"required,max=8"`
	// Child sells a confirmed seat at the child fare.
	Child bool `json:"child"`
}

type seatResp struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	LockedUntil *time.Time   `json:"lockedUntil,omitempty"`
	Cleared     *int         `json:"cleared,omitempty"`
	Order       *model.Order `json:"order,omitempty"`
}

func (h *SeatHandler) bindSeat(c echo.Context) (seatReq, error) {
	var req seatReq
	if err := bind(c, &req); err != nil {
		return req, seatError{err}
	}
	return req, nil
}

// Map returns the seat states of a showtime.  Authenticated callers see which
// locks are their own.
func (h *SeatHandler) Map(c echo.Context) error {
	id, err := pathID(c, "showId")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.showtimes.SeatMap(ctx, id, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// Lock holds a seat for the caller for the configured TTL.
func (h *SeatHandler) Lock(c echo.Context) error {
	req, err := h.bindSeat(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	until, err := h.seats.Lock(ctx, middleware.UserID(c), req.ShowID, req.SeatLabel)
	if err != nil {
		return seatError{err}
	}
	return c.JSON(http.StatusOK, seatResp{
		Success:     true,
		Message:     fmt.Sprintf("seat %s locked", req.SeatLabel),
		LockedUntil: &until,
	})
}

// Confirm sells a seat the caller holds a live lock on and returns the
// resulting order.
func (h *SeatHandler) Confirm(c echo.Context) error {
	req, err := h.bindSeat(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.seats.Confirm(ctx, middleware.UserID(c), req.ShowID, req.SeatLabel, req.Child)
	if err != nil {
		return seatError{err}
	}
	return c.JSON(http.StatusOK, seatResp{
		Success: true,
		Message: fmt.Sprintf("seat %s booked", req.SeatLabel),
		Order:   o,
	})
}

// Unlock releases the caller's lock.  Admins may release any lock.
func (h *SeatHandler) Unlock(c echo.Context) error {
	req, err := h.bindSeat(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.seats.Unlock(ctx, actor(c), req.ShowID, req.SeatLabel); err != nil {
		return seatError{err}
	}
	return c.JSON(http.StatusOK, seatResp{Success: true, Message: fmt.Sprintf("seat %s unlocked", req.SeatLabel)})
}

// ClearExpired releases every lock past its TTL.
func (h *SeatHandler) ClearExpired(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.seats.ClearExpired(ctx)
	if err != nil {
		return seatError{err}
	}
	return c.JSON(http.StatusOK, seatResp{
		Success: true,
		Message: fmt.Sprintf("%d expired locks cleared", n),
		Cleared: &n,
	})
}
