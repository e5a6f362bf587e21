package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveCORS(cfg CORSConfig, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	CORS(cfg)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
	return rec
}

func TestCORS_WildcardAllowsAnyOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/reviews", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	rec := serveCORS(DefaultCORSConfig(), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "X-Correlation-ID", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://user.example.com", " https://admin.example.com "}}

	tests := []struct {
		origin string
		want   string
	}{
		{"https://user.example.com", "https://user.example.com"},
		{"https://admin.example.com", "https://admin.example.com"},
		{"https://evil.example.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := serveCORS(cfg, req)

			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.want != "" {
				assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			}
		})
	}
}

func TestCORS_CredentialsEchoOriginInsteadOfWildcard(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")

	rec := serveCORS(cfg, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/submit-review", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := serveCORS(DefaultCORSConfig(), req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
