package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
	pkgkafka "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/kafka"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/logger"
)

// TopicReviewSubmitted is published once per stored review.
var TopicReviewSubmitted = pkgkafka.Topic("review", "submitted")

// AggregateTypeReview is the aggregate type carried on review events.
const AggregateTypeReview = "review"

// SourceFeedbackService identifies events originating from this service.
const SourceFeedbackService = "feedback-service"

// ReviewSubmittedData is the payload for a review.submitted event. The
// review text is left out; consumers fetch it through the admin API.
type ReviewSubmittedData struct {
	ReviewID  string            `json:"review_id"`
	Rating    int               `json:"rating"`
	Tier      string            `json:"tier"`
	Sources   map[string]string `json:"sources,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Publisher is the part of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review domain events. A nil *Producer, or one built
// around a nil Publisher, drops events silently.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the feedback service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishReviewSubmitted publishes a review.submitted event. sources maps
// each generated artifact to the provider that produced it.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review, sources map[string]string) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := ReviewSubmittedData{
		ReviewID:  review.ID,
		Rating:    review.Rating,
		Tier:      domain.TierOf(review.Rating).String(),
		Sources:   sources,
		CreatedAt: review.CreatedAt,
	}

	event, err := pkgkafka.NewEvent(TopicReviewSubmitted, review.ID, AggregateTypeReview, SourceFeedbackService, data)
	if err != nil {
		return fmt.Errorf("create review.submitted event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, TopicReviewSubmitted, event); err != nil {
		return fmt.Errorf("publish review.submitted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.submitted event",
		slog.String("review_id", review.ID),
		slog.Int("rating", review.Rating),
	)
	return nil
}
