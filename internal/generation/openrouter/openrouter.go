package openrouter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sony/gobreaker/v2"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/generation"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/httpclient"
)

const name = "openrouter"

// Config holds OpenRouter API settings.
type Config struct {
	APIKey  string
	URL     string
	Model   string
	HTTP    httpclient.Config
	Breaker httpclient.CircuitBreakerConfig
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Provider calls an OpenAI-compatible chat completions endpoint.
type Provider struct {
	client *httpclient.CircuitBreakerClient
	url    string
	model  string
	header http.Header
}

// New creates an OpenRouter provider.
func New(cfg Config, logger *slog.Logger) *Provider {
	if cfg.Breaker.Name == "" {
		cfg.Breaker = httpclient.DefaultCircuitBreakerConfig(name)
	}
	return &Provider{
		client: httpclient.NewCircuitBreakerClient(httpclient.New(cfg.HTTP), cfg.Breaker, logger),
		url:    cfg.URL,
		model:  cfg.Model,
		header: http.Header{"Authorization": {"Bearer " + cfg.APIKey}},
	}
}

// Name returns "openrouter".
func (p *Provider) Name() string { return name }

// Available is false while the circuit breaker is open.
func (p *Provider) Available() bool {
	return p.client.State() != gobreaker.StateOpen
}

// Generate sends prompt as a single user message and returns the first
// choice's content.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:    p.model,
		Messages: []message{{Role: "user", Content: prompt}},
	}

	var resp chatResponse
	if err := httpclient.PostJSON(ctx, p.client, name, p.url, p.header, req, &resp); err != nil {
		return "", err
	}

	// OpenRouter reports some upstream failures in a 200 body.
	if resp.Error != nil {
		return "", fmt.Errorf("openrouter: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", generation.ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", generation.ErrEmptyResponse
	}
	return text, nil
}
