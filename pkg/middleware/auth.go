package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/errors"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/httputil"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/logger"
)

// ErrInvalidToken is returned by a TokenValidator that rejects a token.
var ErrInvalidToken = errors.New("invalid token")

// TokenValidator checks a bearer token and returns the caller it identifies.
type TokenValidator func(token string) (actor string, err error)

// StaticToken accepts exactly one shared secret and names its holder actor.
func StaticToken(expected, actor string) TokenValidator {
	want := []byte(expected)
	return func(token string) (string, error) {
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			return "", ErrInvalidToken
		}
		return actor, nil
	}
}

// Auth requires an "Authorization: Bearer <token>" header accepted by
// validate and records the resulting actor in the request context.
func Auth(validate TokenValidator, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing authorization header"), l)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid authorization header format"), l)
				return
			}

			actor, err := validate(token)
			if err != nil {
				logger.FromContext(r.Context()).WarnContext(r.Context(), "rejected bearer token",
					slog.String("path", r.URL.Path),
				)
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), l)
				return
			}

			ctx := logger.WithActor(r.Context(), actor)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("actor", actor)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
