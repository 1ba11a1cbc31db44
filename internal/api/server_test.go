package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/id"
	"github.com/bookshelfapp/bookshelf-server/internal/ratelimit"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// testServer bundles the HTTP server under test with its backing store and
// token service for seeding fixtures.
type testServer struct {
	server *Server
	store  *store.Store
	tokens *auth.TokenService
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "api-test-*")
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
	tokens, err := auth.NewTokenService(hex.EncodeToString(key), time.Hour)
	require.NoError(t, err)

	validator := validation.New()
	authService := service.NewAuthService(s, tokens, validator, nil)
	bookService := service.NewBookService(s, validator, nil)
	reviewService := service.NewReviewService(s, validator, nil)

	// Generous limit so ordinary tests never trip it.
	limiter := ratelimit.New(1000, 1000)

	return &testServer{
		server: NewServer(authService, bookService, reviewService, limiter, nil),
		store:  s,
		tokens: tokens,
	}
}

// seedUser persists a user with a known password and returns it with a
// valid bearer token.
func (ts *testServer) seedUser(t *testing.T, email string, role domain.Role) (*domain.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	userID, err := id.Generate("user")
	require.NoError(t, err)

	user := &domain.User{
		Record:       domain.Record{ID: userID},
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
	}
	user.InitTimestamps()
	require.NoError(t, ts.store.Users.Create(context.Background(), userID, user))

	token, err := ts.tokens.GenerateAccessToken(user)
	require.NoError(t, err)

	return user, token
}

func (ts *testServer) seedBook(t *testing.T, title string) *domain.Book {
	t.Helper()

	bookID, err := id.Generate("book")
	require.NoError(t, err)

	book := &domain.Book{
		Record: domain.Record{ID: bookID},
		Title:  title,
		Author: "Test Author",
		Genre:  "Fiction",
	}
	book.InitTimestamps()
	require.NoError(t, ts.store.Books.Create(context.Background(), bookID, book))
	return book
}

// do executes a request against the server and decodes the envelope.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	var envelope map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestRegisterAndMe(t *testing.T) {
	ts := setupTestServer(t)

	rec, body := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "reader@example.com",
		"password": "correct-horse",
		"name":     "Reader",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := body["data"].(map[string]any)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	user := data["user"].(map[string]any)
	assert.Equal(t, "reader@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")

	rec, body = ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := body["data"].(map[string]any)
	assert.Equal(t, "reader@example.com", me["email"])
}

func TestLogin_BadCredentials(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedUser(t, "reader@example.com", domain.RoleUser)

	rec, body := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "reader@example.com",
		"password": "wrong-horse",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestListBooks_PublicWithCount(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedBook(t, "Dune")
	ts.seedBook(t, "1984")

	rec, body := ts.do(t, http.MethodGet, "/api/books", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])
}

func TestCreateBook_AdminOnly(t *testing.T) {
	ts := setupTestServer(t)
	_, userToken := ts.seedUser(t, "reader@example.com", domain.RoleUser)
	_, adminToken := ts.seedUser(t, "admin@example.com", domain.RoleAdmin)

	payload := map[string]any{
		"title":  "Dune",
		"author": "Frank Herbert",
		"genre":  "Science Fiction",
		"year":   1965,
	}

	rec, _ := ts.do(t, http.MethodPost, "/api/books", "", payload)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/books", userToken, payload)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := ts.do(t, http.MethodPost, "/api/books", adminToken, payload)
	require.Equal(t, http.StatusCreated, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Dune", data["title"])
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/books/book-missing", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "book not found", body["message"])
}

func TestCreateReview_DuplicateIs400(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.seedUser(t, "reader@example.com", domain.RoleUser)
	book := ts.seedBook(t, "Dune")

	payload := map[string]any{"book_id": book.ID, "rating": 5}

	rec, _ := ts.do(t, http.MethodPost, "/api/reviews", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := ts.do(t, http.MethodPost, "/api/reviews", token, payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "you have already reviewed this book", body["message"])
}

func TestCreateReview_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.seedUser(t, "reader@example.com", domain.RoleUser)
	book := ts.seedBook(t, "Dune")

	rec, body := ts.do(t, http.MethodPost, "/api/reviews", token, map[string]any{
		"book_id": book.ID,
		"rating":  9,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, errs)
}

func TestUpdateReview_ForbiddenForOthers(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerToken := ts.seedUser(t, "owner@example.com", domain.RoleUser)
	_, otherToken := ts.seedUser(t, "other@example.com", domain.RoleUser)
	book := ts.seedBook(t, "Dune")

	rec, body := ts.do(t, http.MethodPost, "/api/reviews", ownerToken, map[string]any{
		"book_id": book.ID,
		"rating":  4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	reviewID := body["data"].(map[string]any)["id"].(string)

	rec, _ = ts.do(t, http.MethodPut, "/api/reviews/"+reviewID, otherToken, map[string]any{
		"rating": 1,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBookReviews_AggregateVisible(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.seedBook(t, "Dune")

	for i, rating := range []int{5, 4, 4} {
		_, token := ts.seedUser(t, fmt.Sprintf("user%d@example.com", i), domain.RoleUser)
		rec, _ := ts.do(t, http.MethodPost, "/api/reviews", token, map[string]any{
			"book_id": book.ID,
			"rating":  rating,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, body := ts.do(t, http.MethodGet, "/api/books/"+book.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.InDelta(t, 4.3, data["average_rating"].(float64), 0.0001)
	assert.EqualValues(t, 3, data["review_count"])

	rec, body = ts.do(t, http.MethodGet, "/api/books/"+book.ID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["count"])
}

func TestUnknownRoute_EnvelopedNotFound(t *testing.T) {
	ts := setupTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "route not found", body["message"])
}

func TestAuthRateLimit(t *testing.T) {
	ts := setupTestServer(t)
	// Tight limiter so the third request trips it.
	ts.server.authLimiter = ratelimit.New(0.1, 2)

	payload := map[string]string{"email": "reader@example.com", "password": "whatever"}

	for range 2 {
		rec, _ := ts.do(t, http.MethodPost, "/api/auth/login", "", payload)
		require.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	}

	rec, body := ts.do(t, http.MethodPost, "/api/auth/login", "", payload)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, false, body["success"])
}
