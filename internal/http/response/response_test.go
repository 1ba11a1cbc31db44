package response_test

import (
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/http/response"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Success(rec, map[string]string{"title": "Dune"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	require.Equal(t, true, body["success"])
	require.NotContains(t, body, "count")
}

func TestCollection_IncludesCount(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Collection(rec, []string{"a", "b"}, 2, nil)

	body := decode(t, rec)
	require.Equal(t, true, body["success"])
	require.EqualValues(t, 2, body["count"])
}

func TestCollection_ZeroCountStillPresent(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Collection(rec, []string{}, 0, nil)

	body := decode(t, rec)
	require.Contains(t, body, "count")
	require.EqualValues(t, 0, body["count"])
}

func TestHandleError_DomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	response.HandleError(rec, domainerrors.NotFound("book not found"), nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, "book not found", body["message"])
}

func TestHandleError_ValidationDetails(t *testing.T) {
	err := domainerrors.ValidationWithDetails("validation failed", []validation.FieldError{
		{Field: "rating", Message: "must be less than or equal to 5"},
	})

	rec := httptest.NewRecorder()
	response.HandleError(rec, err, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	require.Equal(t, false, body["success"])

	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
}

func TestHandleError_UnknownErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	response.HandleError(rec, assertError{}, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "internal server error", body["message"])
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
