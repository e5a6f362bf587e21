package generation

import (
	"fmt"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
)

// Artifact is one of the texts generated for a review.
type Artifact string

const (
	Acknowledgement    Artifact = "acknowledgement"
	Summary            Artifact = "summary"
	RecommendedActions Artifact = "recommended_actions"
)

// Artifacts lists every artifact in generation order.
var Artifacts = []Artifact{Acknowledgement, Summary, RecommendedActions}

// Output caps in characters.
const (
	acknowledgementLimit = 500
	summaryLimit         = 300
	actionsLimit         = 500

	fallbackExcerptLen = 200
)

const unavailableNote = "(Note: AI service temporarily unavailable due to quota limits or API key issues)"

// Limit returns the maximum length of a for provider output.
func (a Artifact) Limit() int {
	switch a {
	case Summary:
		return summaryLimit
	case RecommendedActions:
		return actionsLimit
	default:
		return acknowledgementLimit
	}
}

// Prompt builds the model prompt for a.
func (a Artifact) Prompt(rating int, text string) string {
	switch a {
	case Summary:
		return fmt.Sprintf(`Summarize this %d-star restaurant review in 1-2 sentences, highlighting the key points:

Review: "%s"

Summary:`, rating, text)
	case RecommendedActions:
		return fmt.Sprintf(`Based on this %d-star restaurant review, suggest 2-3 specific, actionable recommendations for the restaurant management:

Review: "%s"

Provide recommendations as a bulleted list. Be specific and practical.

Recommendations:`, rating, text)
	default:
		return fmt.Sprintf(`A customer submitted a %d-star review for a restaurant.

Review: "%s"

Generate a brief, professional, and empathetic response (2-3 sentences) that:
- Acknowledges their feedback
- Shows appreciation for their input
- Is appropriate for the rating level

Response:`, rating, text)
	}
}

// Fallback returns the canned text used when no provider produced a.
func (a Artifact) Fallback(rating int, text string) string {
	switch a {
	case Summary:
		return fmt.Sprintf("AI Summary: %d-star review: %s... %s", rating, truncate(text, fallbackExcerptLen), unavailableNote)
	case RecommendedActions:
		switch domain.TierOf(rating) {
		case domain.TierLow:
			return "• Follow up with customer to address concerns\n• Review service protocols\n• Investigate specific issues mentioned\n\n" + unavailableNote
		case domain.TierNeutral:
			return "• Identify areas for improvement\n• Consider customer feedback in planning\n\n" + unavailableNote
		default:
			return "• Maintain current service standards\n• Share positive feedback with staff\n• Consider highlighting strengths in marketing\n\n" + unavailableNote
		}
	default:
		return "Thank you for your feedback. We appreciate your input and will use it to improve our service. " + unavailableNote
	}
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
