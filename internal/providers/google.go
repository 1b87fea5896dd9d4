package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chainbench/chainbench/internal/models"
	"google.golang.org/genai"
)

// GoogleProvider calls the Gemini API. Web search turns on Google Search
// grounding.
type GoogleProvider struct {
	apiKey string

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGoogle creates a Gemini provider. The client is created on first use.
func NewGoogle(apiKey string) *GoogleProvider {
	return &GoogleProvider{apiKey: apiKey}
}

func (p *GoogleProvider) Name() string { return Google }

func (p *GoogleProvider) Send(ctx context.Context, req Request) (models.ProviderResponse, error) {
	p.once.Do(func() {
		p.client, p.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if p.initErr != nil {
		return models.ProviderResponse{}, fmt.Errorf("failed to create GenAI client: %w", p.initErr)
	}

	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.maxTokens())}
	if req.WebSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	latency := time.Since(start)
	if err != nil {
		return models.ProviderResponse{}, err
	}

	tokens := 0
	if u := resp.UsageMetadata; u != nil {
		tokens = int(u.PromptTokenCount) + int(u.CandidatesTokenCount)
	}

	return models.ProviderResponse{
		Content:    resp.Text(),
		Model:      req.Model,
		Provider:   Google,
		TokensUsed: tokens,
		LatencyMs:  int(latency.Milliseconds()),
	}, nil
}
