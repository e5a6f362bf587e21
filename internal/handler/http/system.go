package http

import (
	"net/http"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/service"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/httputil"
)

// IndexResponse describes the API at GET /.
type IndexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

var endpoints = map[string]string{
	"health":             "GET /health",
	"submit_review":      "POST /api/submit-review",
	"admin_reviews":      "GET /api/admin/reviews",
	"admin_review_by_id": "GET /api/admin/reviews/<review_id>",
}

// Index handles GET /
func Index(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, IndexResponse{
			Message:   "AI Feedback System API",
			Version:   version,
			Status:    "running",
			Endpoints: endpoints,
		})
	}
}

// Health handles GET /health. It always answers 200; the body says whether
// the database and at least one provider are reachable.
func Health(svc *service.FeedbackService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, svc.Health(r.Context()))
	}
}
