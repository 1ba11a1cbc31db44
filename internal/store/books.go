package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
)

// Sort selectors accepted by BookQuery.
const (
	SortRating = "rating"
	SortYear   = "year"
	SortTitle  = "title"
)

// BookQuery describes an optional filter and sort over the book collection.
type BookQuery struct {
	// Search matches case-insensitive substrings of title OR author.
	Search string
	// Genre matches the genre exactly, ignoring case.
	Genre string
	// Sort selects the ordering: rating, year, title, or "" for newest first.
	Sort string
}

// QueryBooks returns all books matching the query, ordered by its sort
// selector. The collection is scanned in full; filters and ordering are
// applied in memory.
func (s *Store) QueryBooks(ctx context.Context, q BookQuery) ([]*domain.Book, error) {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	genre := strings.TrimSpace(q.Genre)

	var books []*domain.Book
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(book.Title), search) &&
			!strings.Contains(strings.ToLower(book.Author), search) {
			continue
		}

		if genre != "" && !strings.EqualFold(book.Genre, genre) {
			continue
		}

		books = append(books, book)
	}

	sortBooks(books, q.Sort)
	return books, nil
}

// sortBooks orders books in place according to the sort selector.
func sortBooks(books []*domain.Book, selector string) {
	switch selector {
	case SortRating:
		// Highest rated first, newest first among equal ratings.
		sort.Slice(books, func(i, j int) bool {
			if books[i].AverageRating != books[j].AverageRating {
				return books[i].AverageRating > books[j].AverageRating
			}
			return books[i].CreatedAt.After(books[j].CreatedAt)
		})
	case SortYear:
		sort.Slice(books, func(i, j int) bool {
			return books[i].Year > books[j].Year
		})
	case SortTitle:
		sort.Slice(books, func(i, j int) bool {
			return books[i].Title < books[j].Title
		})
	default:
		// Newest first.
		sort.Slice(books, func(i, j int) bool {
			return books[i].CreatedAt.After(books[j].CreatedAt)
		})
	}
}
