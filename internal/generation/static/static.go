package static

import (
	"context"
	"strings"
)

const name = "static"

// Provider returns canned replies without calling any model. It is meant
// for local development when no API keys are configured.
type Provider struct{}

// New creates a static provider.
func New() *Provider {
	return &Provider{}
}

// Name returns "static".
func (p *Provider) Name() string { return name }

// Available always reports true.
func (p *Provider) Available() bool { return true }

// Generate picks a reply by the prompt's closing cue.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cue := strings.TrimSpace(prompt)
	switch {
	case strings.HasSuffix(cue, "Summary:"):
		return "The customer shared their dining experience and rating.", nil
	case strings.HasSuffix(cue, "Recommendations:"):
		return "• Review this feedback with the team\n• Follow up on any specific issues mentioned", nil
	default:
		return "Thank you for taking the time to share your experience with us. Your feedback helps us improve.", nil
	}
}
