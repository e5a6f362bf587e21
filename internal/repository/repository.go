package repository

import (
	"context"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
)

// ReviewRepository defines the persistence operations for reviews.
type ReviewRepository interface {
	// Create inserts a new review. Reviews are never updated afterwards.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns every review, newest first.
	List(ctx context.Context) ([]domain.Review, error)

	// Stats aggregates ratings across all reviews.
	Stats(ctx context.Context) (*domain.RatingStats, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// AnalyticsCache holds the most recent rating aggregate, tagged with a
// generation that every Invalidate advances.
type AnalyticsCache interface {
	// Get returns the cached aggregate and the current generation. A miss,
	// including an entry written under an older generation, returns nil
	// stats.
	Get(ctx context.Context) (*domain.RatingStats, int64, error)

	// Set stores stats computed after a Get that reported gen. An entry
	// whose generation has since been invalidated is never served.
	Set(ctx context.Context, gen int64, stats *domain.RatingStats) error

	Invalidate(ctx context.Context) error
}
