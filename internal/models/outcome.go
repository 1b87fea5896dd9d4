package models

import "time"

// RawResponse is a collected provider response that has not been analyzed yet.
// One exists per (prompt, model, run, mode).
type RawResponse struct {
	PromptID       string           `json:"promptId"`
	PromptText     string           `json:"promptText"`
	PromptCategory string           `json:"promptCategory"`
	Model          ModelConfig      `json:"model"`
	Response       ProviderResponse `json:"response"`
	Timestamp      time.Time        `json:"timestamp"`
	RunID          string           `json:"runId"`
	WebSearch      bool             `json:"webSearch"`
}

// BenchmarkResult is the unit of persistence and the input to aggregation.
type BenchmarkResult struct {
	RawResponse
	Analysis AnalysisResult `json:"analysis"`
}

// WithAnalysis attaches an analysis to a collected response.
func (r RawResponse) WithAnalysis(a AnalysisResult) BenchmarkResult {
	return BenchmarkResult{RawResponse: r, Analysis: a}
}

// ToolResult is a collected response paired with its tool classification.
type ToolResult struct {
	RawResponse
	ToolDetection ToolDetection `json:"toolDetection"`
}
