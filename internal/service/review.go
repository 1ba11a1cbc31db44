package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/id"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// ReviewService orchestrates review operations and owns the rating aggregate
// kept on each book.
type ReviewService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// CreateReviewRequest contains the data for a new review.
type CreateReviewRequest struct {
	BookID  string `json:"book_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

// UpdateReviewRequest contains optional field updates for an existing review.
// Nil fields are left unchanged.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

// BookRef is the subset of book fields embedded in review listings.
type BookRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// AuthorRef is the subset of user fields embedded in review listings.
type AuthorRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ReviewDetail is a review with its book and author references resolved.
type ReviewDetail struct {
	domain.Review
	Book *BookRef   `json:"book,omitempty"`
	User *AuthorRef `json:"user,omitempty"`
}

// ListReviews returns all reviews, newest first, with references resolved.
func (s *ReviewService) ListReviews(ctx context.Context) ([]*ReviewDetail, error) {
	reviews, err := s.store.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return s.resolveAll(ctx, reviews)
}

// GetReview retrieves one review by ID with references resolved.
func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*ReviewDetail, error) {
	review, err := s.store.Reviews.Get(ctx, reviewID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("review not found")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return s.resolve(ctx, review), nil
}

// ReviewsForBook returns the book's reviews, newest first, with author
// references resolved. The book must exist.
func (s *ReviewService) ReviewsForBook(ctx context.Context, bookID string) ([]*ReviewDetail, error) {
	if _, err := s.store.Books.Get(ctx, bookID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	reviews, err := s.store.ReviewsForBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for book: %w", err)
	}
	return s.resolveAll(ctx, reviews)
}

// CreateReview posts a new review by the actor and refreshes the book's
// rating aggregate. The book must exist, and the actor must not have
// reviewed it already.
func (s *ReviewService) CreateReview(ctx context.Context, actor *domain.User, req CreateReviewRequest) (*domain.Review, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.Books.Get(ctx, req.BookID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	reviewID, err := id.Generate("rev")
	if err != nil {
		return nil, fmt.Errorf("generate review ID: %w", err)
	}

	review := &domain.Review{
		Record:  domain.Record{ID: reviewID},
		BookID:  req.BookID,
		UserID:  actor.ID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	review.InitTimestamps()

	if err := s.store.Reviews.Create(ctx, reviewID, review); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("you have already reviewed this book")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.recalculateRating(ctx, req.BookID); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("Review created",
			"review_id", reviewID,
			"book_id", req.BookID,
			"user_id", actor.ID,
			"rating", req.Rating,
		)
	}

	return review, nil
}

// UpdateReview applies the non-nil fields of the request to an existing
// review and refreshes the book's rating aggregate. Only the review's author
// or an admin may update it.
func (s *ReviewService) UpdateReview(ctx context.Context, actor *domain.User, reviewID string, req UpdateReviewRequest) (*domain.Review, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	// omitempty skips a pointer to zero, so catch it here.
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, domainerrors.Validation("rating must be between 1 and 5")
	}

	review, err := s.store.Reviews.Get(ctx, reviewID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("review not found")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	if !domain.CanModifyReview(actor, review) {
		return nil, domainerrors.Forbidden("you can only modify your own reviews")
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}
	review.Touch()

	if err := s.store.Reviews.Update(ctx, reviewID, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	if err := s.recalculateRating(ctx, review.BookID); err != nil {
		return nil, err
	}

	return review, nil
}

// DeleteReview removes a review and refreshes the book's rating aggregate.
// Only the review's author or an admin may delete it.
func (s *ReviewService) DeleteReview(ctx context.Context, actor *domain.User, reviewID string) error {
	review, err := s.store.Reviews.Get(ctx, reviewID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("review not found")
		}
		return fmt.Errorf("get review: %w", err)
	}

	if !domain.CanModifyReview(actor, review) {
		return domainerrors.Forbidden("you can only delete your own reviews")
	}

	if err := s.store.Reviews.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := s.recalculateRating(ctx, review.BookID); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("Review deleted",
			"review_id", reviewID,
			"book_id", review.BookID,
		)
	}

	return nil
}

// recalculateRating recomputes the book's average rating and review count
// from its current review set and persists both. Zero reviews reset both
// fields to zero. Runs synchronously after every review mutation.
func (s *ReviewService) recalculateRating(ctx context.Context, bookID string) error {
	reviews, err := s.store.ReviewsForBook(ctx, bookID)
	if err != nil {
		return fmt.Errorf("list reviews for aggregate: %w", err)
	}

	book, err := s.store.Books.Get(ctx, bookID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			// Book was deleted concurrently; nothing to aggregate onto.
			return nil
		}
		return fmt.Errorf("get book for aggregate: %w", err)
	}

	book.AverageRating = averageRating(reviews)
	book.ReviewCount = len(reviews)
	book.Touch()

	if err := s.store.Books.Update(ctx, bookID, book); err != nil {
		return fmt.Errorf("update rating aggregate: %w", err)
	}

	return nil
}

// averageRating computes the mean rating rounded half-up to one decimal.
// Multiplying the integer sum by 10 before dividing keeps a single rounding
// step, so exact halves like 4.45 round up.
func averageRating(reviews []*domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}

	return math.Round(float64(sum)*10/float64(len(reviews))) / 10
}

// resolve attaches book and author references to a review. Missing
// references are left nil rather than failing the read.
func (s *ReviewService) resolve(ctx context.Context, review *domain.Review) *ReviewDetail {
	detail := &ReviewDetail{Review: *review}

	if book, err := s.store.Books.Get(ctx, review.BookID); err == nil {
		detail.Book = &BookRef{ID: book.ID, Title: book.Title, Author: book.Author}
	}
	if user, err := s.store.Users.Get(ctx, review.UserID); err == nil {
		detail.User = &AuthorRef{ID: user.ID, Name: user.Name, Email: user.Email}
	}

	return detail
}

func (s *ReviewService) resolveAll(ctx context.Context, reviews []*domain.Review) ([]*ReviewDetail, error) {
	details := make([]*ReviewDetail, 0, len(reviews))
	for _, review := range reviews {
		details = append(details, s.resolve(ctx, review))
	}
	return details, nil
}
