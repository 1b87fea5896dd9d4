package providers

import (
	"context"
	"time"

	"github.com/chainbench/chainbench/internal/models"
	"github.com/sashabaranov/go-openai"
)

// reasoningBudget is added to the token cap of reasoning models, which spend
// completion tokens on hidden reasoning.
const reasoningBudget = 8192

var reasoningModels = map[string]bool{
	"gpt-5.2":    true,
	"gpt-5-mini": true,
	"o3":         true,
	"o3-mini":    true,
	"o4-mini":    true,
}

// OpenAIProvider calls the Chat Completions API. Web search is not supported
// and the flag is ignored.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey)}
}

func (p *OpenAIProvider) Name() string { return OpenAI }

func (p *OpenAIProvider) Send(ctx context.Context, req Request) (models.ProviderResponse, error) {
	maxTokens := req.maxTokens()
	if reasoningModels[req.Model] {
		maxTokens += reasoningBudget
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               req.Model,
		MaxCompletionTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	latency := time.Since(start)
	if err != nil {
		return models.ProviderResponse{}, err
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return models.ProviderResponse{
		Content:    content,
		Model:      req.Model,
		Provider:   OpenAI,
		TokensUsed: resp.Usage.PromptTokens + resp.Usage.CompletionTokens,
		LatencyMs:  int(latency.Milliseconds()),
	}, nil
}
