package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// CatalogHandler serves movies, cinemas, halls and snacks.  Reads are
// public, writes are mounted behind the ADMIN role.
type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ----- DTOs -----

type movieReq struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
	Genre       string `json:"genre" validate:"max=50"`
	DurationMin int    `json:"durationMin" validate:"required,gt=0,lte=600"`
	AgeRating   string `json:"ageRating" validate:"max=10"`
	ReleaseDate string `json:"releaseDate" validate:"omitempty,datetime=2006-01-02"`
	PosterURL   string `json:"posterUrl" validate:"omitempty,url"`
}

func (r movieReq) input() service.MovieInput {
	in := service.MovieInput{
		Title:       r.Title,
		Description: r.Description,
		Genre:       r.Genre,
		DurationMin: r.DurationMin,
		AgeRating:   r.AgeRating,
		PosterURL:   r.PosterURL,
	}
	if d, err := time.Parse("2006-01-02", r.ReleaseDate); err == nil {
		in.ReleaseDate = &d
	}
	return in
}

type cinemaReq struct {
	Name    string `json:"name" validate:"required,max=100"`
	City    string `json:"city" validate:"max=100"`
	Address string `json:"address" validate:"max=255"`
}

type hallReq struct {
	CinemaID uint64            `json:"cinemaId" validate:"required"`
	Name     string            `json:"name" validate:"required,max=100"`
	Layout   *model.HallLayout `json:"layout"`
	Rows     int               `json:"rows" validate:"gte=0,lte=100"`
	Cols     int               `json:"cols" validate:"gte=0,lte=100"`
	IsActive *bool             `json:"isActive"`
}

func (r hallReq) input() service.HallInput {
	return service.HallInput{
		CinemaID: r.CinemaID,
		Name:     r.Name,
		Layout:   r.Layout,
		Rows:     r.Rows,
		Cols:     r.Cols,
		IsActive: r.IsActive,
	}
}

type snackReq struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"max=50"`
	PriceCents  int64  `json:"priceCents" validate:"required,gt=0"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	IsAvailable *bool  `json:"isAvailable"`
}

func (r snackReq) snack() model.Snack {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return model.Snack{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		PriceCents:  r.PriceCents,
		ImageURL:    r.ImageURL,
		IsAvailable: available,
	}
}

// ----- Movies -----

// ListMovies supports ?q= (title search), ?genre=, ?limit= and ?offset=.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	limit, offset, err := page(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	movies, err := h.catalog.ListMovies(ctx, model.MovieFilter{
		Query:  c.QueryParam("q"),
		Genre:  c.QueryParam("genre"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, movies)
}

func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.catalog.GetMovie(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.catalog.CreateMovie(ctx, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *CatalogHandler) UpdateMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req movieReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.catalog.UpdateMovie(ctx, id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// DeleteMovie answers 409 while showtimes reference the movie.
func (h *CatalogHandler) DeleteMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.catalog.DeleteMovie(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- Cinemas -----

func (h *CatalogHandler) ListCinemas(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	cinemas, err := h.catalog.ListCinemas(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cinemas)
}

func (h *CatalogHandler) GetCinema(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cin, err := h.catalog.GetCinema(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cin)
}

func (h *CatalogHandler) CreateCinema(c echo.Context) error {
	var req cinemaReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cin, err := h.catalog.CreateCinema(ctx, model.Cinema{Name: req.Name, City: req.City, Address: req.Address})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cin)
}

func (h *CatalogHandler) UpdateCinema(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req cinemaReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cin, err := h.catalog.UpdateCinema(ctx, id, model.Cinema{Name: req.Name, City: req.City, Address: req.Address})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cin)
}

// DeleteCinema answers 409 while the cinema still has halls.
func (h *CatalogHandler) DeleteCinema(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.catalog.DeleteCinema(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- Halls -----

// ListCinemaHalls serves GET /cinemas/:id/halls.
func (h *CatalogHandler) ListCinemaHalls(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	halls, err := h.catalog.ListHalls(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, halls)
}

// ListHalls serves GET /halls with an optional ?cinemaId= filter.
func (h *CatalogHandler) ListHalls(c echo.Context) error {
	cinemaID, err := queryID(c, "cinemaId")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	halls, err := h.catalog.ListHalls(ctx, cinemaID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, halls)
}

func (h *CatalogHandler) GetHall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	hall, err := h.catalog.GetHall(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hall)
}

// CreateHall accepts either an explicit layout or rows and cols, in which
// case a grid of NORMAL seats is generated.
func (h *CatalogHandler) CreateHall(c echo.Context) error {
	var req hallReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	hall, err := h.catalog.CreateHall(ctx, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, hall)
}

func (h *CatalogHandler) UpdateHall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req hallReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	hall, err := h.catalog.UpdateHall(ctx, id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hall)
}

// DeleteHall answers 409 while showtimes reference the hall.
func (h *CatalogHandler) DeleteHall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.catalog.DeleteHall(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- Snacks -----

// ListSnacks shows available snacks.  Admins get every snack with ?all=true.
func (h *CatalogHandler) ListSnacks(c echo.Context) error {
	onlyAvailable := !(queryBool(c, "all") && middleware.Role(c) == model.RoleAdmin)
	ctx, cancel := reqCtx(c)
	defer cancel()

	snacks, err := h.catalog.ListSnacks(ctx, onlyAvailable)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snacks)
}

func (h *CatalogHandler) GetSnack(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sn, err := h.catalog.GetSnack(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sn)
}

func (h *CatalogHandler) CreateSnack(c echo.Context) error {
	var req snackReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sn, err := h.catalog.CreateSnack(ctx, req.snack())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sn)
}

func (h *CatalogHandler) UpdateSnack(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req snackReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sn, err := h.catalog.UpdateSnack(ctx, id, req.snack())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sn)
}

func (h *CatalogHandler) DeleteSnack(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.catalog.DeleteSnack(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
