package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
)

// ListReviews returns all reviews, newest first.
func (s *Store) ListReviews(ctx context.Context) ([]*domain.Review, error) {
	var reviews []*domain.Review
	for review, err := range s.Reviews.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list reviews: %w", err)
		}
		reviews = append(reviews, review)
	}

	sortReviewsNewestFirst(reviews)
	return reviews, nil
}

// ReviewsForBook returns all reviews referencing the book, newest first.
func (s *Store) ReviewsForBook(ctx context.Context, bookID string) ([]*domain.Review, error) {
	var reviews []*domain.Review
	for review, err := range s.Reviews.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list reviews for book: %w", err)
		}
		if review.BookID == bookID {
			reviews = append(reviews, review)
		}
	}

	sortReviewsNewestFirst(reviews)
	return reviews, nil
}

// DeleteReviewsForBook removes every review referencing the book.
// Used by the book-delete cascade. Returns the number of reviews removed.
func (s *Store) DeleteReviewsForBook(ctx context.Context, bookID string) (int, error) {
	reviews, err := s.ReviewsForBook(ctx, bookID)
	if err != nil {
		return 0, err
	}

	for _, review := range reviews {
		if err := s.Reviews.Delete(ctx, review.ID); err != nil {
			return 0, fmt.Errorf("delete review %s: %w", review.ID, err)
		}
	}

	return len(reviews), nil
}

func sortReviewsNewestFirst(reviews []*domain.Review) {
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
}
