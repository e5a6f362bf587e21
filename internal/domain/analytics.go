package domain

import (
	"math"
	"strconv"
)

// Rating tier boundaries used by analytics and fallback recommendations.
const (
	LowRatingMax  = 2
	HighRatingMin = 4
)

// Tier groups ratings into low, neutral and high.
type Tier int

const (
	TierLow Tier = iota
	TierNeutral
	TierHigh
)

// TierOf returns the tier a rating belongs to.
func TierOf(rating int) Tier {
	switch {
	case rating <= LowRatingMax:
		return TierLow
	case rating >= HighRatingMin:
		return TierHigh
	default:
		return TierNeutral
	}
}

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierHigh:
		return "high"
	default:
		return "neutral"
	}
}

// RatingStats is the raw aggregate read from storage.
type RatingStats struct {
	Total        int
	Sum          int
	LowCount     int
	HighCount    int
	Distribution map[int]int
}

// NewRatingStats returns an empty aggregate.
func NewRatingStats() *RatingStats {
	return &RatingStats{Distribution: map[int]int{}}
}

// Add folds count reviews with the given rating into the aggregate.
func (s *RatingStats) Add(rating, count int) {
	s.Total += count
	s.Sum += rating * count
	s.Distribution[rating] += count
	switch TierOf(rating) {
	case TierLow:
		s.LowCount += count
	case TierHigh:
		s.HighCount += count
	}
}

// Analytics is the dashboard summary derived from RatingStats.
type Analytics struct {
	TotalReviews          int     `json:"total_reviews"`
	AverageRating         float64 `json:"average_rating"`
	LowRatingsCount       int     `json:"low_ratings_count"`
	HighRatingsCount      int     `json:"high_ratings_count"`
	LowRatingsPercentage  float64 `json:"low_ratings_percentage"`
	HighRatingsPercentage float64 `json:"high_ratings_percentage"`
}

// Dashboard is everything the admin view needs in one read.
type Dashboard struct {
	Reviews            []Review       `json:"reviews"`
	TotalCount         int            `json:"total_count"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	Analytics          Analytics      `json:"analytics"`
}

// Analytics computes averages and percentages, rounded to two decimals.
// An empty set yields zeros.
func (s RatingStats) Analytics() Analytics {
	a := Analytics{
		TotalReviews:     s.Total,
		LowRatingsCount:  s.LowCount,
		HighRatingsCount: s.HighCount,
	}
	if s.Total == 0 {
		return a
	}
	total := float64(s.Total)
	a.AverageRating = Round2(float64(s.Sum) / total)
	a.LowRatingsPercentage = Round2(float64(s.LowCount) / total * 100)
	a.HighRatingsPercentage = Round2(float64(s.HighCount) / total * 100)
	return a
}

// DistributionJSON keys the distribution by rating as a string, omitting
// ratings with no reviews.
func (s RatingStats) DistributionJSON() map[string]int {
	out := make(map[string]int, len(s.Distribution))
	for rating, n := range s.Distribution {
		if n > 0 {
			out[strconv.Itoa(rating)] = n
		}
	}
	return out
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
