package models

// Tier ranks a model within its provider's lineup.
type Tier string

const (
	TierFlagship Tier = "flagship"
	TierMidTier  Tier = "mid-tier"
)

// Prompt is one chain-agnostic building request sent to every model.
type Prompt struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Text     string `json:"text" yaml:"text" validate:"required"`
	Category string `json:"category" yaml:"category" validate:"required"`
}

// ModelConfig identifies which model produced a response.
type ModelConfig struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Provider    string `json:"provider" yaml:"provider" validate:"required,oneof=anthropic openai google mock"`
	Tier        Tier   `json:"tier" yaml:"tier" validate:"required,oneof=flagship mid-tier"`
	DisplayName string `json:"displayName" yaml:"display_name" validate:"required"`
}

// ProviderResponse is the output of one provider call. Content is the raw
// text handed to the analyzer.
type ProviderResponse struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	Provider   string `json:"provider"`
	TokensUsed int    `json:"tokensUsed"`
	LatencyMs  int    `json:"latencyMs"`
}
