package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chainbench/chainbench/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// AnthropicProvider calls the Messages API. Web search is not supported and
// the flag is ignored.
type AnthropicProvider struct {
	apiKey string
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{apiKey: apiKey}
}

func (p *AnthropicProvider) Name() string { return Anthropic }

func (p *AnthropicProvider) Send(ctx context.Context, req Request) (models.ProviderResponse, error) {
	llm, err := anthropic.New(anthropic.WithToken(p.apiKey), anthropic.WithModel(req.Model))
	if err != nil {
		return models.ProviderResponse{}, fmt.Errorf("creating anthropic client: %w", err)
	}

	start := time.Now()
	resp, err := llm.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt)},
		llms.WithMaxTokens(req.maxTokens()),
	)
	latency := time.Since(start)
	if err != nil {
		return models.ProviderResponse{}, err
	}

	var parts []string
	tokens := 0
	for _, choice := range resp.Choices {
		if choice.Content != "" {
			parts = append(parts, choice.Content)
		}
		if tokens == 0 {
			tokens = intInfo(choice.GenerationInfo, "InputTokens") + intInfo(choice.GenerationInfo, "OutputTokens")
		}
	}

	return models.ProviderResponse{
		Content:    strings.Join(parts, "\n"),
		Model:      req.Model,
		Provider:   Anthropic,
		TokensUsed: tokens,
		LatencyMs:  int(latency.Milliseconds()),
	}, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
