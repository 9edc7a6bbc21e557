package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// ReviewHandler serves /api/reviews.
type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type reviewReq struct {
	MovieID uint64 `json:"movieId" validate:"required"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// List serves GET /reviews?movieId=.  Without a movie it falls back to the
// newest reviews.
func (h *ReviewHandler) List(c echo.Context) error {
	movieID, err := queryID(c, "movieId")
	if err != nil {
		return err
	}
	if movieID != 0 {
		return h.listByMovie(c, movieID)
	}
	limit, offset, err := page(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.reviews.List(ctx, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// ListByMovie serves GET /reviews/movie/:movieId.
func (h *ReviewHandler) ListByMovie(c echo.Context) error {
	movieID, err := pathID(c, "movieId")
	if err != nil {
		return err
	}
	return h.listByMovie(c, movieID)
}

func (h *ReviewHandler) listByMovie(c echo.Context, movieID uint64) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.reviews.ListByMovie(ctx, movieID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Create answers 409 when the caller already reviewed the movie.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req reviewReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.reviews.Create(ctx, middleware.UserID(c), req.MovieID, req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, r)
}

// Delete is allowed to the author and to admins.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.reviews.Delete(ctx, actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
