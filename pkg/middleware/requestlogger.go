package middleware

import (
	"log/slog"
	"net/http"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, actor, trace_id and span_id. Handlers fetch it with
// logger.FromContext. Mount it after RequestLogging and Tracing so those
// values are already in the context.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
