// Package providers sends prompts to model vendors through their SDKs.
package providers

//go:generate go tool mockgen -source=provider.go -destination=mock_provider.go -package=providers

import (
	"context"
	"errors"

	"github.com/chainbench/chainbench/internal/models"
)

// ErrNoProvider is returned when a provider is unknown or has no API key.
var ErrNoProvider = errors.New("provider not available")

// MaxTokens caps every completion unless a request sets its own limit.
const MaxTokens = 4096

// Request is one prompt for one model.
type Request struct {
	Prompt    string
	Model     string
	WebSearch bool
	// MaxTokens overrides the default completion cap when positive.
	MaxTokens int
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return MaxTokens
}

// Provider sends a single prompt and measures the round trip.
type Provider interface {
	Name() string
	Send(ctx context.Context, req Request) (models.ProviderResponse, error)
}

// Provider names.
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Google    = "google"
	Mock      = "mock"
)

// KeyEnv maps each provider to the environment variable holding its key.
var KeyEnv = map[string]string{
	Anthropic: "ANTHROPIC_API_KEY",
	OpenAI:    "OPENAI_API_KEY",
	Google:    "GEMINI_API_KEY",
}
