package generation

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers with no usable text.
var ErrEmptyResponse = errors.New("provider returned empty response")

// Provider turns a prompt into text using some language model backend.
type Provider interface {
	// Name identifies the provider in logs and metrics (e.g. "gemini").
	Name() string

	// Generate returns the model's reply to prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Available reports whether the provider is currently worth calling.
	Available() bool
}
