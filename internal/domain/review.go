package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Review text length bounds, counted in characters after trimming.
const (
	MinReviewLength = 1
	MaxReviewLength = 5000
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating plus the text artifacts generated for it.
// Reviews are written once and never modified.
type Review struct {
	ID                   string    `json:"review_id"`
	Rating               int       `json:"rating"`
	Text                 string    `json:"review_text"`
	AISummary            string    `json:"ai_summary"`
	AIRecommendedActions string    `json:"ai_recommended_actions"`
	CreatedAt            time.Time `json:"created_at"`
}

// Submission is a validated review as entered by the customer.
type Submission struct {
	Rating int
	Text   string
}

// NewSubmission trims the text and checks both fields against the review
// bounds. The returned error is user-facing.
func NewSubmission(rating int, text string) (Submission, error) {
	if rating < MinRating || rating > MaxRating {
		return Submission{}, ErrRatingOutOfRange
	}
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n > MaxReviewLength {
		return Submission{}, ErrReviewTooLong
	}
	if n < MinReviewLength {
		return Submission{}, ErrReviewEmpty
	}
	return Submission{Rating: rating, Text: text}, nil
}

// NewReview stamps a submission with a fresh id and the current UTC time.
func NewReview(s Submission, summary, actions string) *Review {
	return &Review{
		ID:                   uuid.NewString(),
		Rating:               s.Rating,
		Text:                 s.Text,
		AISummary:            summary,
		AIRecommendedActions: actions,
		CreatedAt:            time.Now().UTC(),
	}
}
