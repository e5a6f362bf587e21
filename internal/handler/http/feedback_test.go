package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation/gemini"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation/openrouter"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/service"
	apperrors "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/errors"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/health"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/httpclient"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/httputil"
)

// --- Mocks ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context) ([]domain.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Stats(ctx context.Context) (*domain.RatingStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingStats), args.Error(1)
}

func (m *mockReviewRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type stubGenerator struct {
	available bool
	calls     int
}

func (g *stubGenerator) Generate(_ context.Context, s domain.Submission) generation.Feedback {
	g.calls++
	return generation.Feedback{
		Acknowledgement:    "Thanks for the kind words!",
		Summary:            "Customer enjoyed the food.",
		RecommendedActions: "- Keep it up",
		Sources: map[generation.Artifact]string{
			generation.Acknowledgement:    "stub",
			generation.Summary:            "stub",
			generation.RecommendedActions: "stub",
		},
	}
}

func (g *stubGenerator) Available() bool { return g.available }

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	repo    *mockReviewRepository
	gen     *stubGenerator
	handler http.Handler
}

func setupRouter(t *testing.T, cfg RouterConfig) *fixture {
	t.Helper()
	repo := new(mockReviewRepository)
	gen := &stubGenerator{available: true}
	svc := service.NewFeedbackService(repo, gen, testLogger())
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	return &fixture{
		repo:    repo,
		gen:     gen,
		handler: NewRouter(svc, health.NewHandler(), cfg, testLogger()),
	}
}

func (f *fixture) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// --- SubmitReview ---

func TestSubmitReview_Success(t *testing.T) {
	f := setupRouter(t, RouterConfig{})
	var stored *domain.Review
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Review) }).
		Return(nil)

	rec := f.do(http.MethodPost, "/api/submit-review", `{"rating":5,"review_text":"  Lovely pasta  "}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SubmitReviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Thanks for the kind words!", resp.AIResponse)

	require.NotNil(t, stored)
	assert.Equal(t, stored.ID, resp.ReviewID)
	assert.Equal(t, 5, stored.Rating)
	assert.Equal(t, "Lovely pasta", stored.Text)
	assert.Equal(t, "Customer enjoyed the food.", stored.AISummary)
	assert.Equal(t, "- Keep it up", stored.AIRecommendedActions)
}

func TestSubmitReview_RejectsBeforeGenerating(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{"empty body", "", "INVALID_INPUT", "No data provided"},
		{"json null", "null", "INVALID_INPUT", "No data provided"},
		{"empty object", "{}", "INVALID_INPUT", "No data provided"},
		{"malformed json", `{"rating":`, "INVALID_INPUT", "Validation error: invalid request body: unexpected end of JSON input"},
		{"rating wrong type", `{"rating":"five","review_text":"ok"}`, "INVALID_INPUT", ""},
		{"array body", `[{"rating":3,"review_text":"ok"}]`, "INVALID_INPUT", ""},
		{"rating missing", `{"review_text":"ok"}`, "VALIDATION_ERROR", "Validation error: rating is required"},
		{"rating zero", `{"rating":0,"review_text":"ok"}`, "VALIDATION_ERROR", "Validation error: rating must be between 1 and 5"},
		{"rating six", `{"rating":6,"review_text":"ok"}`, "VALIDATION_ERROR", "Validation error: rating must be between 1 and 5"},
		{"text missing", `{"rating":3}`, "VALIDATION_ERROR", "Validation error: review_text is required"},
		{"text blank", `{"rating":3,"review_text":"   "}`, "INVALID_INPUT", "Review text cannot be empty"},
		{"text too long", `{"rating":3,"review_text":"` + strings.Repeat("a", domain.MaxReviewLength+1) + `"}`,
			"INVALID_INPUT", "Review text exceeds maximum length of 5000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupRouter(t, RouterConfig{})

			rec := f.do(http.MethodPost, "/api/submit-review", tt.body, map[string]string{"Content-Type": "application/json"})

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Error)
			} else {
				assert.True(t, strings.HasPrefix(body.Error, "Validation error: invalid request body:"), body.Error)
			}
			assert.Zero(t, f.gen.calls)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitReview_BodyTooLarge(t *testing.T) {
	f := setupRouter(t, RouterConfig{})
	body := `{"rating":3,"review_text":"` + strings.Repeat("a", maxBodyBytes) + `"}`

	rec := f.do(http.MethodPost, "/api/submit-review", body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "request body exceeds")
}

func TestSubmitReview_LongMultibyteTextWithinLimit(t *testing.T) {
	f := setupRouter(t, RouterConfig{})
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	text := strings.Repeat("é", domain.MaxReviewLength)
	rec := f.do(http.MethodPost, "/api/submit-review", `{"rating":4,"review_text":"`+text+`"}`, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSubmitReview_SaveFailure(t *testing.T) {
	f := setupRouter(t, RouterConfig{})
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	rec := f.do(http.MethodPost, "/api/submit-review", `{"rating":2,"review_text":"Cold soup"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.Equal(t, "Failed to save review: connection refused", body.Error)
}

func TestSubmitReview_WrongContentType(t *testing.T) {
	f := setupRouter(t, RouterConfig{})

	rec := f.do(http.MethodPost, "/api/submit-review", `rating=5`, map[string]string{"Content-Type": "application/x-www-form-urlencoded"})

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", decodeError(t, rec).Code)
}

func TestSubmitReview_RatingMessageMatchesDomainError(t *testing.T) {
	f := setupRouter(t, RouterConfig{})

	rec := f.do(http.MethodPost, "/api/submit-review", `{"rating":9,"review_text":"ok"}`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, domain.ErrRatingOutOfRange.Code, body.Code)
	assert.Equal(t, domain.ErrRatingOutOfRange.Message, body.Error)
}

// deadlineAwareRepository fails writes on a finished context, as pgx does.
type deadlineAwareRepository struct {
	mockReviewRepository
}

func (r *deadlineAwareRepository) Create(ctx context.Context, review *domain.Review) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return r.mockReviewRepository.Create(ctx, review)
}

func TestSubmitReview_HangingProvidersStillStoreReview(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(upstream.Close)
	t.Cleanup(func() { close(release) })

	httpCfg := httpclient.Config{
		Timeout:         10 * time.Second,
		MaxRetries:      1,
		RetryWaitMin:    10 * time.Millisecond,
		RetryWaitMax:    20 * time.Millisecond,
		MaxConnsPerHost: 4,
	}
	orchestrator := generation.NewOrchestrator(testLogger(),
		gemini.New(gemini.Config{APIKey: "g-key", Model: "gemini-test", BaseURL: upstream.URL, HTTP: httpCfg}, testLogger()),
		openrouter.New(openrouter.Config{APIKey: "or-key", URL: upstream.URL, Model: "test/model", HTTP: httpCfg}, testLogger()),
	).WithBudget(300 * time.Millisecond)

	repo := new(deadlineAwareRepository)
	var stored *domain.Review
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Review) }).
		Return(nil)

	svc := service.NewFeedbackService(repo, orchestrator, testLogger())
	router := NewRouter(svc, health.NewHandler(), RouterConfig{Version: "1.0.0", RequestTimeout: 2 * time.Second}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/submit-review", strings.NewReader(`{"rating":2,"review_text":"Waited an hour"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	start := time.Now()
	router.ServeHTTP(rec, req)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp SubmitReviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, generation.Acknowledgement.Fallback(2, "Waited an hour"), resp.AIResponse)

	require.NotNil(t, stored)
	assert.Equal(t, resp.ReviewID, stored.ID)
	assert.Equal(t, generation.Summary.Fallback(2, "Waited an hour"), stored.AISummary)
	assert.Equal(t, generation.RecommendedActions.Fallback(2, "Waited an hour"), stored.AIRecommendedActions)
	assert.NotZero(t, hits.Load())
}

// --- Admin ---

func sampleReviews() []domain.Review {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Review{
		{ID: "r-3", Rating: 5, Text: "Superb", AISummary: "Loved it", CreatedAt: now},
		{ID: "r-2", Rating: 5, Text: "Great", CreatedAt: now.Add(-time.Hour)},
		{ID: "r-1", Rating: 1, Text: "Awful", CreatedAt: now.Add(-2 * time.Hour)},
	}
}

func TestListReviews_Dashboard(t *testing.T) {
	f := setupRouter(t, RouterConfig{})
	f.repo.On("List", mock.Anything).Return(sampleReviews(), nil)
	f.repo.On("Stats", mock.Anything).Return(&domain.RatingStats{
		Total: 3, Sum: 11, LowCount: 1, HighCount: 2,
		Distribution: map[int]int{1: 1, 5: 2},
	}, nil)

	rec := f.do(http.MethodGet, "/api/admin/reviews", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body struct {
		Reviews []struct {
			ReviewID             string `json:"review_id"`
			AISummary            string `json:"ai_summary"`
			AIRecommendedActions string `json:"ai_recommended_actions"`
			CreatedAt            string `json:"created_at"`
		} `json:"reviews"`
		TotalCount         int              `json:"total_count"`
		RatingDistribution map[string]int   `json:"rating_distribution"`
		Analytics          domain.Analytics `json:"analytics"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	require.Len(t, body.Reviews, 3)
	assert.Equal(t, "r-3", body.Reviews[0].ReviewID)
	assert.Equal(t, "2025-06-01T12:00:00Z", body.Reviews[0].CreatedAt)
	assert.Equal(t, "", body.Reviews[1].AISummary)
	assert.Equal(t, 3, body.TotalCount)
	assert.Equal(t, map[string]int{"1": 1, "5": 2}, body.RatingDistribution)
	assert.Equal(t, domain.Analytics{
		TotalReviews:          3,
		AverageRating:         3.67,
		LowRatingsCount:       1,
		HighRatingsCount:      2,
		LowRatingsPercentage:  33.33,
		HighRatingsPercentage: 66.67,
	}, body.Analytics)
}

func TestListReviews_Empty(t *testing.T) {
	f := setupRouter(t, RouterConfig{})
	f.repo.On("List", mock.Anything).Return([]domain.Review{}, nil)
	f.repo.On("Stats", mock.Anything).Return(&domain.RatingStats{Distribution: map[int]int{}}, nil)

	rec := f.do(http.MethodGet, "/api/admin/reviews", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"reviews": [],
		"total_count": 0,
		"rating_distribution": {},
		"analytics": {
			"total_reviews": 0,
			"average_rating": 0,
			"low_ratings_count": 0,
			"high_ratings_count": 0,
			"low_ratings_percentage": 0,
			"high_ratings_percentage": 0
		}
	}`, rec.Body.String())
}

func TestListReviews_DatabaseError(t *testing.T) {
	f := setupRouter(t, RouterConfig{})
	f.repo.On("List", mock.Anything).Return(nil, errors.New("db down"))

	rec := f.do(http.MethodGet, "/api/admin/reviews", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}

func TestGetReview(t *testing.T) {
	f := setupRouter(t, RouterConfig{})
	review := sampleReviews()[0]
	f.repo.On("GetByID", mock.Anything, "r-3").Return(&review, nil)

	rec := f.do(http.MethodGet, "/api/admin/reviews/r-3", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"review_id": "r-3",
		"rating": 5,
		"review_text": "Superb",
		"ai_summary": "Loved it",
		"ai_recommended_actions": "",
		"created_at": "2025-06-01T12:00:00Z"
	}`, rec.Body.String())
}

func TestGetReview_NotFound(t *testing.T) {
	f := setupRouter(t, RouterConfig{})
	f.repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("Review", "missing"))

	rec := f.do(http.MethodGet, "/api/admin/reviews/missing", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Equal(t, "Review not found", body.Error)
}

func TestAdmin_RequiresTokenWhenConfigured(t *testing.T) {
	f := setupRouter(t, RouterConfig{AdminToken: "s3cret"})
	f.repo.On("List", mock.Anything).Return([]domain.Review{}, nil)
	f.repo.On("Stats", mock.Anything).Return(&domain.RatingStats{}, nil)

	rec := f.do(http.MethodGet, "/api/admin/reviews", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/admin/reviews", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/admin/reviews", "", map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitReview_OpenWhenAdminTokenConfigured(t *testing.T) {
	f := setupRouter(t, RouterConfig{AdminToken: "s3cret"})
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	rec := f.do(http.MethodPost, "/api/submit-review", `{"rating":4,"review_text":"Nice"}`, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
