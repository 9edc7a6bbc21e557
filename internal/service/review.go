package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// ReviewService lets customers rate movies once each.
type ReviewService struct {
	store repository.Store
}

func NewReviewService(store repository.Store) *ReviewService {
	return &ReviewService{store: store}
}

// Create adds the user's review of a movie.  A second review of the same
// movie returns ErrConflict.
func (s *ReviewService) Create(ctx context.Context, userID, movieID uint64, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if _, err := s.store.Movies().GetByID(ctx, movieID); err != nil {
		return nil, err
	}
	r := &model.Review{MovieID: movieID, UserID: userID, Rating: rating, Comment: strings.TrimSpace(comment)}
	if err := s.store.Reviews().Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return s.store.Reviews().GetByID(ctx, r.ID)
}

func (s *ReviewService) ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	if _, err := s.store.Movies().GetByID(ctx, movieID); err != nil {
		return nil, err
	}
	return s.store.Reviews().ListByMovie(ctx, movieID)
}

func (s *ReviewService) List(ctx context.Context, limit, offset int) ([]model.Review, error) {
	return s.store.Reviews().List(ctx, limit, offset)
}

// Delete removes a review.  Only its author or an admin may delete it.
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uint64) error {
	r, err := s.store.Reviews().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.canAccess(r.UserID) {
		return repository.ErrForbidden
	}
	return s.store.Reviews().Delete(ctx, id)
}
