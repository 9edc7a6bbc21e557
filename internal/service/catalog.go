package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// CatalogService manages movies, cinemas, halls and snacks.
type CatalogService struct {
	store repository.Store
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

// MovieInput carries the editable fields of a movie.
type MovieInput struct {
	Title       string
	Description string
	Genre       string
	DurationMin int
	AgeRating   string
	ReleaseDate *time.Time
	PosterURL   string
}

func (in MovieInput) apply(m *model.Movie) error {
	m.Title = strings.TrimSpace(in.Title)
	if m.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.DurationMin <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	m.Description = in.Description
	m.Genre = strings.TrimSpace(in.Genre)
	m.DurationMin = in.DurationMin
	m.AgeRating = in.AgeRating
	m.ReleaseDate = in.ReleaseDate
	m.PosterURL = in.PosterURL
	return nil
}

func (s *CatalogService) CreateMovie(ctx context.Context, in MovieInput) (*model.Movie, error) {
	m := &model.Movie{}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	if err := s.store.Movies().Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}
	return m, nil
}

// UpdateMovie replaces the editable fields.  Existing showtimes keep their
// end time when the duration changes.
func (s *CatalogService) UpdateMovie(ctx context.Context, id uint64, in MovieInput) (*model.Movie, error) {
	m, err := s.store.Movies().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	if err := s.store.Movies().Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update movie: %w", err)
	}
	return s.store.Movies().GetByID(ctx, id)
}

func (s *CatalogService) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	return s.store.Movies().GetByID(ctx, id)
}

func (s *CatalogService) ListMovies(ctx context.Context, f model.MovieFilter) ([]model.Movie, error) {
	return s.store.Movies().List(ctx, f)
}

func (s *CatalogService) DeleteMovie(ctx context.Context, id uint64) error {
	return s.store.Movies().Delete(ctx, id)
}

func validateCinema(c *model.Cinema) error {
	c.Name = strings.TrimSpace(c.Name)
	c.City = strings.TrimSpace(c.City)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateCinema(ctx context.Context, c model.Cinema) (*model.Cinema, error) {
	c.ID = 0
	if err := validateCinema(&c); err != nil {
		return nil, err
	}
	if err := s.store.Cinemas().Create(ctx, &c); err != nil {
		return nil, fmt.Errorf("create cinema: %w", err)
	}
	return &c, nil
}

func (s *CatalogService) UpdateCinema(ctx context.Context, id uint64, c model.Cinema) (*model.Cinema, error) {
	cur, err := s.store.Cinemas().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ID, c.CreatedAt = cur.ID, cur.CreatedAt
	if err := validateCinema(&c); err != nil {
		return nil, err
	}
	if err := s.store.Cinemas().Update(ctx, &c); err != nil {
		return nil, fmt.Errorf("update cinema: %w", err)
	}
	return &c, nil
}

func (s *CatalogService) GetCinema(ctx context.Context, id uint64) (*model.Cinema, error) {
	return s.store.Cinemas().GetByID(ctx, id)
}

func (s *CatalogService) ListCinemas(ctx context.Context) ([]model.Cinema, error) {
	return s.store.Cinemas().List(ctx)
}

func (s *CatalogService) DeleteCinema(ctx context.Context, id uint64) error {
	return s.store.Cinemas().Delete(ctx, id)
}

// HallInput describes a hall.  When Layout is nil a Rows x Cols grid of
// NORMAL seats is generated.
type HallInput struct {
	CinemaID uint64
	Name     string
	Layout   *model.HallLayout
	Rows     int
	Cols     int
	IsActive *bool
}

func (in HallInput) layout() (model.HallLayout, error) {
	var l model.HallLayout
	if in.Layout != nil {
		l = in.Layout.Clone()
	} else {
		if in.Rows <= 0 || in.Cols <= 0 {
			return l, fmt.Errorf("%w: layout or rows and cols are required", ErrValidation)
		}
		l = model.GridLayout(in.Rows, in.Cols)
	}
	if err := l.Validate(); err != nil {
		return l, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(l.ActiveSeats()) == 0 {
		return l, fmt.Errorf("%w: hall has no active seats", ErrValidation)
	}
	return l, nil
}

func (s *CatalogService) CreateHall(ctx context.Context, in HallInput) (*model.Hall, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.CinemaID == 0 {
		return nil, fmt.Errorf("%w: cinema and name are required", ErrValidation)
	}
	layout, err := in.layout()
	if err != nil {
		return nil, err
	}
	h := &model.Hall{CinemaID: in.CinemaID, Name: name, Layout: layout, IsActive: true}
	if in.IsActive != nil {
		h.IsActive = *in.IsActive
	}
	if err := s.store.Halls().Create(ctx, h); err != nil {
		return nil, fmt.Errorf("create hall: %w", err)
	}
	return h, nil
}

// UpdateHall changes the name, layout or active flag.  A new layout applies
// to showtimes created afterwards; existing seat states are kept.
func (s *CatalogService) UpdateHall(ctx context.Context, id uint64, in HallInput) (*model.Hall, error) {
	h, err := s.store.Halls().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		h.Name = name
	}
	if in.Layout != nil || (in.Rows > 0 && in.Cols > 0) {
		if h.Layout, err = in.layout(); err != nil {
			return nil, err
		}
	}
	if in.IsActive != nil {
		h.IsActive = *in.IsActive
	}
	if err := s.store.Halls().Update(ctx, h); err != nil {
		return nil, fmt.Errorf("update hall: %w", err)
	}
	return h, nil
}

func (s *CatalogService) GetHall(ctx context.Context, id uint64) (*model.Hall, error) {
	return s.store.Halls().GetByID(ctx, id)
}

// ListHalls lists the halls of a cinema, or every hall for cinemaID 0.
func (s *CatalogService) ListHalls(ctx context.Context, cinemaID uint64) ([]model.Hall, error) {
	if cinemaID != 0 {
		if _, err := s.store.Cinemas().GetByID(ctx, cinemaID); err != nil {
			return nil, err
		}
	}
	return s.store.Halls().List(ctx, cinemaID)
}

func (s *CatalogService) DeleteHall(ctx context.Context, id uint64) error {
	return s.store.Halls().Delete(ctx, id)
}

func validateSnack(sn *model.Snack) error {
	sn.Name = strings.TrimSpace(sn.Name)
	if sn.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if sn.PriceCents <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateSnack(ctx context.Context, sn model.Snack) (*model.Snack, error) {
	sn.ID = 0
	if err := validateSnack(&sn); err != nil {
		return nil, err
	}
	if err := s.store.Snacks().Create(ctx, &sn); err != nil {
		return nil, fmt.Errorf("create snack: %w", err)
	}
	return &sn, nil
}

func (s *CatalogService) UpdateSnack(ctx context.Context, id uint64, sn model.Snack) (*model.Snack, error) {
	cur, err := s.store.Snacks().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sn.ID, sn.CreatedAt = cur.ID, cur.CreatedAt
	if err := validateSnack(&sn); err != nil {
		return nil, err
	}
	if err := s.store.Snacks().Update(ctx, &sn); err != nil {
		return nil, fmt.Errorf("update snack: %w", err)
	}
	return &sn, nil
}

func (s *CatalogService) GetSnack(ctx context.Context, id uint64) (*model.Snack, error) {
	return s.store.Snacks().GetByID(ctx, id)
}

func (s *CatalogService) ListSnacks(ctx context.Context, onlyAvailable bool) ([]model.Snack, error) {
	return s.store.Snacks().List(ctx, onlyAvailable)
}

func (s *CatalogService) DeleteSnack(ctx context.Context, id uint64) error {
	return s.store.Snacks().Delete(ctx, id)
}
