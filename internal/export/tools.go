package export

import (
	"time"

	"github.com/chainbench/chainbench/internal/models"
)

// ToolSlimResult is a tool classification without the response text.
type ToolSlimResult struct {
	PromptID         string      `json:"promptId"`
	PromptCategory   string      `json:"promptCategory"`
	Model            string      `json:"model"`
	ModelDisplayName string      `json:"modelDisplayName"`
	ModelTier        models.Tier `json:"modelTier"`
	Tools            []string    `json:"tools"`
	Reasoning        string      `json:"reasoning,omitempty"`
	LatencyMs        int         `json:"latencyMs"`
	TokensUsed       int         `json:"tokensUsed"`
	WebSearch        bool        `json:"webSearch"`
}

// ToolRunData is the tools dashboard payload.
type ToolRunData struct {
	Meta    Meta             `json:"meta"`
	Results []ToolSlimResult `json:"results"`
	Prompts []Prompt         `json:"prompts"`
}

// BuildToolRunData assembles the tools payload. Prompts keep their first
// recorded category and text.
func BuildToolRunData(results []models.ToolResult, now time.Time) ToolRunData {
	ts := ISOTimestamp(now)
	runID := SafeTimestamp(ts)
	if len(results) > 0 && results[0].RunID != "" {
		runID = results[0].RunID
	}

	var prompts []Prompt
	seenPrompts := make(map[string]bool)
	seenModels := make(map[string]bool)
	slim := make([]ToolSlimResult, 0, len(results))
	webSearch := false
	for _, r := range results {
		if !seenPrompts[r.PromptID] {
			seenPrompts[r.PromptID] = true
			prompts = append(prompts, Prompt{ID: r.PromptID, Category: r.PromptCategory, Text: r.PromptText})
		}
		seenModels[r.Model.ID] = true
		webSearch = webSearch || r.WebSearch

		tools := r.ToolDetection.Tools
		if tools == nil {
			tools = []string{}
		}
		slim = append(slim, ToolSlimResult{
			PromptID:         r.PromptID,
			PromptCategory:   r.PromptCategory,
			Model:            r.Model.ID,
			ModelDisplayName: r.Model.DisplayName,
			ModelTier:        r.Model.Tier,
			Tools:            tools,
			Reasoning:        r.ToolDetection.Reasoning,
			LatencyMs:        r.Response.LatencyMs,
			TokensUsed:       r.Response.TokensUsed,
			WebSearch:        r.WebSearch,
		})
	}
	if prompts == nil {
		prompts = []Prompt{}
	}

	return ToolRunData{
		Meta: Meta{
			Timestamp:   ts,
			RunID:       runID,
			ModelCount:  len(seenModels),
			PromptCount: len(prompts),
			ResultCount: len(results),
			WebSearch:   webSearch,
		},
		Results: slim,
		Prompts: prompts,
	}
}
