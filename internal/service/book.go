package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/id"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// BookService orchestrates catalog operations on books.
type BookService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *BookService {
	return &BookService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// CreateBookRequest contains the data for a new catalog entry.
type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Author      string `json:"author" validate:"required,max=200"`
	Genre       string `json:"genre" validate:"required,max=100"`
	Year        int    `json:"year" validate:"omitempty,gte=0,lte=2100"`
	Pages       int    `json:"pages" validate:"omitempty,gte=1"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

// UpdateBookRequest contains optional field updates for an existing book.
// Nil fields are left unchanged.
type UpdateBookRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Author      *string `json:"author" validate:"omitempty,max=200"`
	Genre       *string `json:"genre" validate:"omitempty,max=100"`
	Year        *int    `json:"year" validate:"omitempty,gte=0,lte=2100"`
	Pages       *int    `json:"pages" validate:"omitempty,gte=1"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// ListBooks returns books matching the query, ordered by its sort selector.
func (s *BookService) ListBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	books, err := s.store.QueryBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}

// GetBook retrieves a single book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.Books.Get(ctx, bookID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// CreateBook adds a new book to the catalog on behalf of the actor.
// Derived rating fields start at zero.
func (s *BookService) CreateBook(ctx context.Context, actor *domain.User, req CreateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		Record:      domain.Record{ID: bookID},
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Year:        req.Year,
		Pages:       req.Pages,
		Description: req.Description,
		CreatedBy:   actor.ID,
	}
	book.InitTimestamps()

	if err := s.store.Books.Create(ctx, bookID, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Book created",
			"book_id", bookID,
			"title", book.Title,
			"created_by", actor.ID,
		)
	}

	return book, nil
}

// UpdateBook applies the non-nil fields of the request to an existing book.
func (s *BookService) UpdateBook(ctx context.Context, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.Books.Get(ctx, bookID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Genre != nil {
		book.Genre = *req.Genre
	}
	if req.Year != nil {
		book.Year = *req.Year
	}
	if req.Pages != nil {
		book.Pages = *req.Pages
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	book.Touch()

	if err := s.store.Books.Update(ctx, bookID, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	return book, nil
}

// DeleteBook removes a book and cascades deletion of its reviews.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	if _, err := s.store.Books.Get(ctx, bookID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("book not found")
		}
		return fmt.Errorf("get book: %w", err)
	}

	removed, err := s.store.DeleteReviewsForBook(ctx, bookID)
	if err != nil {
		return fmt.Errorf("cascade delete reviews: %w", err)
	}

	if err := s.store.Books.Delete(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Book deleted",
			"book_id", bookID,
			"reviews_removed", removed,
		)
	}

	return nil
}
