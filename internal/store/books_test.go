package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// seedBook writes a book with explicit derived fields and creation time.
func seedBook(t *testing.T, s *store.Store, id, title, author, genre string, year int, rating float64, createdAt time.Time) {
	t.Helper()

	book := &domain.Book{
		Record: domain.Record{
			ID:        id,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		Title:         title,
		Author:        author,
		Genre:         genre,
		Year:          year,
		AverageRating: rating,
	}
	require.NoError(t, s.Books.Create(context.Background(), id, book))
}

func TestQueryBooks_SearchMatchesTitleOrAuthor(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	now := time.Now()
	seedBook(t, s, "b1", "Dune", "Frank Herbert", "Science Fiction", 1965, 0, now)
	seedBook(t, s, "b2", "The Great Gatsby", "F. Scott Fitzgerald", "Fiction", 1925, 0, now)
	seedBook(t, s, "b3", "Dune Messiah", "Frank Herbert", "Science Fiction", 1969, 0, now)

	books, err := s.QueryBooks(context.Background(), store.BookQuery{Search: "dune"})
	require.NoError(t, err)
	require.Len(t, books, 2)

	// Author substrings match too.
	books, err = s.QueryBooks(context.Background(), store.BookQuery{Search: "herbert"})
	require.NoError(t, err)
	require.Len(t, books, 2)

	books, err = s.QueryBooks(context.Background(), store.BookQuery{Search: "gatsby"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, "b2", books[0].ID)
}

func TestQueryBooks_GenreIsCaseInsensitiveExact(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	now := time.Now()
	seedBook(t, s, "b1", "The Great Gatsby", "F. Scott Fitzgerald", "Fiction", 1925, 0, now)
	seedBook(t, s, "b2", "Dune", "Frank Herbert", "Science Fiction", 1965, 0, now)

	books, err := s.QueryBooks(context.Background(), store.BookQuery{Genre: "fiction"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, "b1", books[0].ID)

	// "fiction" must not partially match "Science Fiction".
	books, err = s.QueryBooks(context.Background(), store.BookQuery{Genre: "science fiction"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, "b2", books[0].ID)
}

func TestQueryBooks_SortByRating(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	base := time.Now()
	seedBook(t, s, "b1", "Older High", "A", "Fiction", 2000, 4.5, base.Add(-2*time.Hour))
	seedBook(t, s, "b2", "Low", "B", "Fiction", 2001, 3.0, base.Add(-1*time.Hour))
	seedBook(t, s, "b3", "Newer High", "C", "Fiction", 2002, 4.5, base)

	books, err := s.QueryBooks(context.Background(), store.BookQuery{Sort: store.SortRating})
	require.NoError(t, err)
	require.Len(t, books, 3)

	// Non-increasing rating, ties broken by newer creation time.
	require.Equal(t, "b3", books[0].ID)
	require.Equal(t, "b1", books[1].ID)
	require.Equal(t, "b2", books[2].ID)
}

func TestQueryBooks_SortByYearAndTitle(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	now := time.Now()
	seedBook(t, s, "b1", "Charlie", "A", "Fiction", 1990, 0, now)
	seedBook(t, s, "b2", "Alpha", "B", "Fiction", 2010, 0, now)
	seedBook(t, s, "b3", "Bravo", "C", "Fiction", 2000, 0, now)

	books, err := s.QueryBooks(context.Background(), store.BookQuery{Sort: store.SortYear})
	require.NoError(t, err)
	require.Equal(t, []int{2010, 2000, 1990}, []int{books[0].Year, books[1].Year, books[2].Year})

	books, err = s.QueryBooks(context.Background(), store.BookQuery{Sort: store.SortTitle})
	require.NoError(t, err)
	require.Equal(t, "Alpha", books[0].Title)
	require.Equal(t, "Bravo", books[1].Title)
	require.Equal(t, "Charlie", books[2].Title)
}

func TestQueryBooks_DefaultSortNewestFirst(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	base := time.Now()
	seedBook(t, s, "b1", "Oldest", "A", "Fiction", 1990, 0, base.Add(-2*time.Hour))
	seedBook(t, s, "b2", "Newest", "B", "Fiction", 2010, 0, base)
	seedBook(t, s, "b3", "Middle", "C", "Fiction", 2000, 0, base.Add(-1*time.Hour))

	books, err := s.QueryBooks(context.Background(), store.BookQuery{})
	require.NoError(t, err)
	require.Equal(t, "Newest", books[0].Title)
	require.Equal(t, "Middle", books[1].Title)
	require.Equal(t, "Oldest", books[2].Title)
}
