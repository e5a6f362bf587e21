package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/errors"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/logger"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/validator"
)

// ValidationPrefix is prepended to every request-body validation message.
const ValidationPrefix = apperrors.ValidationPrefix

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and error body. AppErrors keep their own
// code and message; bare sentinels get a generic message; anything else is a
// 500 whose message carries the error text. 5xx responses are logged with
// the request-scoped logger when one is present, otherwise with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	body := ErrorResponse{RequestID: logger.CorrelationIDFromContext(r.Context())}
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		body.Code, body.Error = appErr.Code, appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		body.Code, body.Error = "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		body.Code, body.Error = "INVALID_INPUT", err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		body.Code, body.Error = "UNAUTHORIZED", "unauthorized"
	default:
		body.Code, body.Error = "INTERNAL_ERROR", "Internal server error: "+err.Error()
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, body)
}

// WriteValidationError writes a 400 for a request body that failed decoding
// or validation. Validator failures report per-field messages.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	body := ErrorResponse{
		Code:      "INVALID_INPUT",
		Error:     ValidationPrefix + err.Error(),
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		body.Code = "VALIDATION_ERROR"
		body.Error = ValidationPrefix + valErr.Error()
		body.Fields = valErr.Fields()
	}

	WriteJSON(w, http.StatusBadRequest, body)
}
