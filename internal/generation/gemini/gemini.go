package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker/v2"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/httpclient"
)

const name = "gemini"

// Config holds Gemini API settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    httpclient.Config
	Breaker httpclient.CircuitBreakerConfig
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Provider calls the Gemini generateContent REST endpoint.
type Provider struct {
	client   *httpclient.CircuitBreakerClient
	endpoint string
	header   http.Header
}

// New creates a Gemini provider.
func New(cfg Config, logger *slog.Logger) *Provider {
	if cfg.Breaker.Name == "" {
		cfg.Breaker = httpclient.DefaultCircuitBreakerConfig(name)
	}
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/models/" + url.PathEscape(cfg.Model) + ":generateContent"

	return &Provider{
		client:   httpclient.NewCircuitBreakerClient(httpclient.New(cfg.HTTP), cfg.Breaker, logger),
		endpoint: endpoint,
		header:   http.Header{"X-Goog-Api-Key": {cfg.APIKey}},
	}
}

// Name returns "gemini".
func (p *Provider) Name() string { return name }

// Available is false while the circuit breaker is open.
func (p *Provider) Available() bool {
	return p.client.State() != gobreaker.StateOpen
}

// Generate sends prompt as a single user turn and joins the text parts of
// the first candidate.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}}

	var resp generateResponse
	if err := httpclient.PostJSON(ctx, p.client, name, p.endpoint, p.header, req, &resp); err != nil {
		return "", err
	}

	if reason := resp.PromptFeedback.BlockReason; reason != "" {
		return "", fmt.Errorf("gemini blocked prompt: %s", reason)
	}
	if len(resp.Candidates) == 0 {
		return "", generation.ErrEmptyResponse
	}

	var b strings.Builder
	for _, pt := range resp.Candidates[0].Content.Parts {
		b.WriteString(pt.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", generation.ErrEmptyResponse
	}
	return text, nil
}
