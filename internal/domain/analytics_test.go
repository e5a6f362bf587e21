package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierOf(t *testing.T) {
	tests := map[int]Tier{1: TierLow, 2: TierLow, 3: TierNeutral, 4: TierHigh, 5: TierHigh}
	for rating, want := range tests {
		assert.Equal(t, want, TierOf(rating), "rating %d", rating)
	}
	assert.Equal(t, "low", TierLow.String())
	assert.Equal(t, "neutral", TierNeutral.String())
	assert.Equal(t, "high", TierHigh.String())
}

func TestRatingStats_Add(t *testing.T) {
	s := NewRatingStats()
	s.Add(1, 1)
	s.Add(3, 2)
	s.Add(5, 2)
	s.Add(5, 1)

	assert.Equal(t, RatingStats{
		Total:        6,
		Sum:          22,
		LowCount:     1,
		HighCount:    3,
		Distribution: map[int]int{1: 1, 3: 2, 5: 3},
	}, *s)
	assert.Equal(t, 3.67, s.Analytics().AverageRating)
}

func TestRatingStats_Analytics(t *testing.T) {
	// Ratings 1, 5, 5.
	stats := RatingStats{Total: 3, Sum: 11, LowCount: 1, HighCount: 2}

	a := stats.Analytics()

	assert.Equal(t, 3, a.TotalReviews)
	assert.Equal(t, 3.67, a.AverageRating)
	assert.Equal(t, 1, a.LowRatingsCount)
	assert.Equal(t, 2, a.HighRatingsCount)
	assert.Equal(t, 33.33, a.LowRatingsPercentage)
	assert.Equal(t, 66.67, a.HighRatingsPercentage)
}

func TestRatingStats_AnalyticsEmpty(t *testing.T) {
	a := RatingStats{}.Analytics()
	assert.Equal(t, Analytics{}, a)
}

func TestRatingStats_NeutralOnly(t *testing.T) {
	a := RatingStats{Total: 2, Sum: 6}.Analytics()
	assert.Equal(t, 3.0, a.AverageRating)
	assert.Zero(t, a.LowRatingsPercentage)
	assert.Zero(t, a.HighRatingsPercentage)
}

func TestRatingStats_DistributionJSON(t *testing.T) {
	stats := RatingStats{Distribution: map[int]int{1: 1, 3: 0, 5: 2}}
	assert.Equal(t, map[string]int{"1": 1, "5": 2}, stats.DistributionJSON())
	assert.Empty(t, RatingStats{}.DistributionJSON())
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.5, Round2(2.5))
	assert.Equal(t, 1.33, Round2(4.0/3.0))
	assert.Equal(t, 16.67, Round2(100.0/6.0))
	assert.Equal(t, 0.0, Round2(0))
}
