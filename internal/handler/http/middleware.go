package http

import (
	"net/http"
	"strings"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/httputil"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/logger"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
// A missing header is accepted.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{
					Error:     "Content-Type must be application/json",
					Code:      "UNSUPPORTED_MEDIA_TYPE",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
