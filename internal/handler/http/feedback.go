package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/service"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/httputil"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/validator"
)

const maxBodyBytes = 1 << 20

// FeedbackHandler handles HTTP requests for the feedback endpoints.
type FeedbackHandler struct {
	service *service.FeedbackService
	logger  *slog.Logger
}

// NewFeedbackHandler creates a new feedback HTTP handler.
func NewFeedbackHandler(svc *service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request / response DTOs ---

// SubmitReviewRequest is the JSON request body for submitting a review.
// Pointers distinguish a missing field from a zero value.
type SubmitReviewRequest struct {
	Rating     *int    `json:"rating" validate:"required,between=1:5"`
	ReviewText *string `json:"review_text" validate:"required"`
}

// SubmitReviewResponse is returned after a review has been stored.
type SubmitReviewResponse struct {
	Success    bool   `json:"success"`
	ReviewID   string `json:"review_id"`
	AIResponse string `json:"ai_response"`
}

// --- Handlers ---

// SubmitReview handles POST /api/submit-review
func (h *FeedbackHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteValidationError(w, r, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		httputil.WriteValidationError(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}

	empty, err := isEmptyPayload(raw)
	if err != nil {
		httputil.WriteValidationError(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if empty {
		httputil.WriteError(w, r, domain.ErrNoData, h.logger)
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(raw))
	var req SubmitReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := h.service.SubmitReview(r.Context(), *req.Rating, *req.ReviewText)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, SubmitReviewResponse{
		Success:    true,
		ReviewID:   result.Review.ID,
		AIResponse: result.AIResponse,
	})
}

// ListReviews handles GET /api/admin/reviews
func (h *FeedbackHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dashboard)
}

// GetReview handles GET /api/admin/reviews/{id}
func (h *FeedbackHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, review)
}

// isEmptyPayload reports whether raw carries no submission at all: no bytes,
// JSON null, or an empty object.
func isEmptyPayload(raw []byte) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true, nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, err
	}
	switch v := doc.(type) {
	case nil:
		return true, nil
	case map[string]any:
		return len(v) == 0, nil
	default:
		return false, nil
	}
}
