package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/http/response"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

// handleListReviews returns all reviews, newest first.
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.reviewService.ListReviews(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Collection(w, reviews, len(reviews), s.logger)
}

// handleGetReview returns a single review by ID.
func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	review, err := s.reviewService.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, review, s.logger)
}

// handleCreateReview posts a new review by the authenticated user.
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req service.CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	review, err := s.reviewService.CreateReview(r.Context(), currentUser(r.Context()), req)
	if err != nil {
		// A duplicate review is a 400 on this endpoint, per the external
		// contract, rather than the generic conflict status.
		if domainerrors.Is(err, domainerrors.ErrConflict) {
			response.BadRequest(w, "you have already reviewed this book", s.logger)
			return
		}
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, review, s.logger)
}

// handleUpdateReview applies field updates to an existing review.
func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	review, err := s.reviewService.UpdateReview(r.Context(), currentUser(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, review, s.logger)
}

// handleDeleteReview removes a review.
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.reviewService.DeleteReview(r.Context(), currentUser(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.JSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: "review deleted",
	}, s.logger)
}
