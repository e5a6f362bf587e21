package domain

import (
	"fmt"

	apperrors "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/errors"
)

// Submission validation failures. Messages are shown to the customer as-is.
var (
	ErrRatingOutOfRange = apperrors.Validation(
		fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	ErrReviewTooLong = apperrors.InvalidInput(
		fmt.Sprintf("Review text exceeds maximum length of %d characters", MaxReviewLength))
	ErrReviewEmpty = apperrors.InvalidInput("Review text cannot be empty")
	ErrNoData      = apperrors.InvalidInput("No data provided")
)
