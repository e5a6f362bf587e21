package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/database"
	apperrors "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/errors"
)

const (
	reviewsTable = "reviews"

	insertReviewSQL = `
		INSERT INTO reviews (review_id, rating, review_text, ai_summary, ai_recommended_actions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	selectReviewColumns = `
		SELECT review_id, rating, review_text,
		       COALESCE(ai_summary, ''), COALESCE(ai_recommended_actions, ''), created_at
		FROM reviews`

	getReviewSQL   = selectReviewColumns + ` WHERE review_id = $1`
	listReviewsSQL = selectReviewColumns + ` ORDER BY created_at DESC, review_id`

	// One statement so every figure comes from the same snapshot.
	statsSQL = `
		SELECT rating, COUNT(*)
		FROM reviews
		GROUP BY rating
		ORDER BY rating`

	pingSQL = `SELECT 1`
)

// ReviewRepository implements review persistence using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, database.Query{Operation: "CreateReview", Table: reviewsTable, Statement: insertReviewSQL})
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertReviewSQL,
		review.ID,
		review.Rating,
		review.Text,
		review.AISummary,
		review.AIRecommendedActions,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by its identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.Query{Operation: "GetReview", Table: reviewsTable, Statement: getReviewSQL})
	defer func() { end(err) }()

	rv, err := scanReview(r.pool.QueryRow(ctx, getReviewSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

// List returns every review ordered by creation time, newest first.
func (r *ReviewRepository) List(ctx context.Context) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, database.Query{Operation: "ListReviews", Table: reviewsTable, Statement: listReviewsSQL})
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listReviewsSQL)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// Stats reads per-rating counts and derives totals and tier counts from them.
func (r *ReviewRepository) Stats(ctx context.Context) (_ *domain.RatingStats, err error) {
	ctx, end := database.TraceQuery(ctx, database.Query{Operation: "ReviewStats", Table: reviewsTable, Statement: statsSQL})
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, statsSQL)
	if err != nil {
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}
	defer rows.Close()

	stats := domain.NewRatingStats()
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("scan rating count: %w", err)
		}
		stats.Add(rating, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating counts: %w", err)
	}
	return stats, nil
}

// Ping runs a trivial query to confirm the database answers.
func (r *ReviewRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.pool.QueryRow(ctx, pingSQL).Scan(&one); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(
		&rv.ID,
		&rv.Rating,
		&rv.Text,
		&rv.AISummary,
		&rv.AIRecommendedActions,
		&rv.CreatedAt,
	); err != nil {
		return nil, err
	}
	rv.CreatedAt = rv.CreatedAt.UTC()
	return &rv, nil
}
