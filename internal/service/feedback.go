package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/repository"
	apperrors "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/errors"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/logger"
)

const (
	pingTimeout = 2 * time.Second

	// persistTimeout bounds storing a review once its texts exist. Storage
	// runs detached from the request context so a slow generation phase
	// cannot cancel it.
	persistTimeout = 10 * time.Second
)

// Health status values reported by FeedbackService.Health.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Generator produces the AI texts for a submission.
type Generator interface {
	Generate(ctx context.Context, s domain.Submission) generation.Feedback
	Available() bool
}

// EventPublisher announces stored reviews to other systems.
type EventPublisher interface {
	PublishReviewSubmitted(ctx context.Context, review *domain.Review, sources map[string]string) error
}

// SubmitResult is what the customer gets back after submitting a review.
type SubmitResult struct {
	Review     *domain.Review
	AIResponse string
}

// HealthStatus summarises dependency reachability.
type HealthStatus struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	LLMAvailable      bool   `json:"llm_available"`
}

// FeedbackService implements review submission and the admin read side.
type FeedbackService struct {
	repo      repository.ReviewRepository
	cache     repository.AnalyticsCache
	generator Generator
	events    EventPublisher
	logger    *slog.Logger
}

// Option configures optional FeedbackService collaborators.
type Option func(*FeedbackService)

// WithAnalyticsCache serves dashboard aggregates from cache.
func WithAnalyticsCache(c repository.AnalyticsCache) Option {
	return func(s *FeedbackService) { s.cache = c }
}

// WithEventPublisher publishes a review.submitted event for every stored review.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *FeedbackService) { s.events = p }
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(repo repository.ReviewRepository, generator Generator, logger *slog.Logger, opts ...Option) *FeedbackService {
	s := &FeedbackService{
		repo:      repo,
		generator: generator,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitReview validates the submission, generates its AI texts and stores
// it. Generation never fails the call; storage failures do.
func (s *FeedbackService) SubmitReview(ctx context.Context, rating int, text string) (*SubmitResult, error) {
	sub, err := domain.NewSubmission(rating, text)
	if err != nil {
		return nil, err
	}

	fb := s.generator.Generate(ctx, sub)
	review := domain.NewReview(sub, fb.Summary, fb.RecommendedActions)

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.repo.Create(storeCtx, review); err != nil {
		return nil, apperrors.Internal("Failed to save review", err)
	}

	log := logger.WithContext(ctx, s.logger)
	if s.cache != nil {
		if err := s.cache.Invalidate(storeCtx); err != nil {
			log.WarnContext(ctx, "failed to invalidate analytics cache", slog.String("error", err.Error()))
		}
	}
	if s.events != nil {
		if err := s.events.PublishReviewSubmitted(storeCtx, review, sourceLabels(fb.Sources)); err != nil {
			log.WarnContext(ctx, "failed to publish review event",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	log.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.Int("rating", review.Rating),
		slog.String("summary_source", fb.Sources[generation.Summary]),
	)

	return &SubmitResult{Review: review, AIResponse: fb.Acknowledgement}, nil
}

// Dashboard returns every review with rating analytics.
func (s *FeedbackService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	reviews, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	stats, err := s.stats(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		Reviews:            reviews,
		TotalCount:         len(reviews),
		RatingDistribution: stats.DistributionJSON(),
		Analytics:          stats.Analytics(),
	}, nil
}

// stats reads the aggregate through the cache when one is configured. Cache
// errors fall back to the database. The database result is only written
// back under the generation observed before the query ran.
func (s *FeedbackService) stats(ctx context.Context) (*domain.RatingStats, error) {
	log := logger.WithContext(ctx, s.logger)

	fill := false
	var gen int64
	if s.cache != nil {
		cached, g, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			log.WarnContext(ctx, "analytics cache read failed", slog.String("error", err.Error()))
		case cached != nil:
			return cached, nil
		default:
			fill, gen = true, g
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}

	if fill {
		if err := s.cache.Set(ctx, gen, stats); err != nil {
			log.WarnContext(ctx, "analytics cache write failed", slog.String("error", err.Error()))
		}
	}
	return stats, nil
}

// GetReview returns one review by id.
func (s *FeedbackService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return review, nil
}

// Health pings the database and asks the generator whether any provider
// is usable. It never fails.
func (s *FeedbackService) Health(ctx context.Context) HealthStatus {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	h := HealthStatus{
		Status:            StatusHealthy,
		DatabaseConnected: true,
		LLMAvailable:      s.generator.Available(),
	}
	if err := s.repo.Ping(pingCtx); err != nil {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "database ping failed", slog.String("error", err.Error()))
		h.Status = StatusDegraded
		h.DatabaseConnected = false
	}
	return h
}

func sourceLabels(sources map[generation.Artifact]string) map[string]string {
	out := make(map[string]string, len(sources))
	for a, src := range sources {
		out[string(a)] = src
	}
	return out
}
