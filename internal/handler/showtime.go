package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// ShowtimeHandler serves /api/showtimes.
type ShowtimeHandler struct {
	showtimes *service.ShowtimeService
	now       func() time.Time
}

func NewShowtimeHandler(showtimes *service.ShowtimeService) *ShowtimeHandler {
	return &ShowtimeHandler{showtimes: showtimes, now: time.Now}
}

type showtimeReq struct {
	MovieID    uint64    `json:"movieId" validate:"required"`
	HallID     uint64    `json:"hallId" validate:"required"`
	StartsAt   time.Time `json:"startsAt" validate:"required"`
	PriceCents int64     `json:"priceCents" validate:"required,gt=0"`
}

type showtimeUpdateReq struct {
	StartsAt   *time.Time `json:"startsAt"`
	PriceCents *int64     `json:"priceCents" validate:"omitempty,gt=0"`
	Status     *string    `json:"status" validate:"omitempty,oneof=SCHEDULED CANCELLED COMPLETED"`
}

// filter reads movieId, cinemaId, hallId, date (YYYY-MM-DD, UTC), upcoming,
// status, limit and offset.
func (h *ShowtimeHandler) filter(c echo.Context) (model.ShowtimeFilter, error) {
	var (
		f   model.ShowtimeFilter
		err error
	)
	if f.MovieID, err = queryID(c, "movieId"); err != nil {
		return f, err
	}
	if f.CinemaID, err = queryID(c, "cinemaId"); err != nil {
		return f, err
	}
	if f.HallID, err = queryID(c, "hallId"); err != nil {
		return f, err
	}
	if d := c.QueryParam("date"); d != "" {
		day, err := time.ParseInLocation("2006-01-02", d, time.UTC)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		f.Day = &day
	}
	if queryBool(c, "upcoming") {
		now := h.now().UTC()
		f.After = &now
	}
	if s := strings.ToUpper(c.QueryParam("status")); s != "" {
		if !model.ValidShowtimeStatus(s) {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = s
	}
	f.Limit, f.Offset, err = page(c)
	return f, err
}

func (h *ShowtimeHandler) List(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.showtimes.List(ctx, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Get returns one showtime together with its booked seat labels.
func (h *ShowtimeHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.showtimes.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Create answers 409 when the hall is busy during the new showtime.
func (h *ShowtimeHandler) Create(c echo.Context) error {
	var req showtimeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.showtimes.Create(ctx, service.ShowtimeInput{
		MovieID:    req.MovieID,
		HallID:     req.HallID,
		StartsAt:   req.StartsAt,
		PriceCents: req.PriceCents,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *ShowtimeHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req showtimeUpdateReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	st, err := h.showtimes.Update(ctx, id, service.ShowtimeUpdate{
		StartsAt:   req.StartsAt,
		PriceCents: req.PriceCents,
		Status:     req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Delete answers 409 while the showtime has bookings.
func (h *ShowtimeHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.showtimes.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
