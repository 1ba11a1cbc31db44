package service

import (
	"context"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/id"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// testEnv bundles the services under test with their backing store.
type testEnv struct {
	store   *store.Store
	auth    *AuthService
	books   *BookService
	reviews *ReviewService
}

// setupServiceTest creates the full service stack backed by a temporary store.
func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "service-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	tokenService, err := auth.NewTokenService(hex.EncodeToString(key), time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	validator := validation.New()

	return &testEnv{
		store:   s,
		auth:    NewAuthService(s, tokenService, validator, logger),
		books:   NewBookService(s, validator, logger),
		reviews: NewReviewService(s, validator, logger),
	}
}

// createTestUser persists a user with the given role directly in the store.
func createTestUser(t *testing.T, s *store.Store, email string, role domain.Role) *domain.User {
	t.Helper()

	userID, err := id.Generate("user")
	require.NoError(t, err)

	user := &domain.User{
		Record: domain.Record{ID: userID},
		Email:  email,
		Name:   "Test User",
		Role:   role,
	}
	user.InitTimestamps()

	require.NoError(t, s.Users.Create(context.Background(), userID, user))
	return user
}

// createTestBook persists a book directly in the store.
func createTestBook(t *testing.T, s *store.Store, title string) *domain.Book {
	t.Helper()

	bookID, err := id.Generate("book")
	require.NoError(t, err)

	book := &domain.Book{
		Record: domain.Record{ID: bookID},
		Title:  title,
		Author: "Test Author",
		Genre:  "Fiction",
		Year:   1999,
	}
	book.InitTimestamps()

	require.NoError(t, s.Books.Create(context.Background(), bookID, book))
	return book
}
