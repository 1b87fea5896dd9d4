package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvidence_String(t *testing.T) {
	tests := []struct {
		name string
		ev   Evidence
		want string
	}{
		{
			name: "signal evidence",
			ev:   Evidence{Signal: "anchor_lang", Target: "Solana", MatchCount: 4, Weight: 10},
			want: "anchor_lang (×4, weight 10)",
		},
		{
			name: "classifier reasoning",
			ev:   Evidence{Signal: "Recommends Base for low fees."},
			want: "Recommends Base for low fees.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.ev.String())
		})
	}
}

func TestEvidence_UnmarshalLegacyString(t *testing.T) {
	var evs []Evidence
	err := json.Unmarshal([]byte(`["Classification failed", {"signal":"Hardhat","target":"EVM","matchCount":2,"weight":7,"tool":true}]`), &evs)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, Evidence{Signal: "Classification failed"}, evs[0])
	require.Equal(t, Evidence{Signal: "Hardhat", Target: "EVM", MatchCount: 2, Weight: 7, Tool: true}, evs[1])
}

func TestBenchmarkResult_JSONShape(t *testing.T) {
	raw := RawResponse{
		PromptID:       "token-launch",
		PromptText:     "Help me launch a token",
		PromptCategory: "DeFi",
		Model:          ModelConfig{ID: "gpt-5.2", Provider: "openai", Tier: TierFlagship, DisplayName: "GPT-5.2"},
		Response:       ProviderResponse{Content: "hello", LatencyMs: 120, TokensUsed: 10},
		Timestamp:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		RunID:          "run-1-1",
		WebSearch:      true,
	}
	result := raw.WithAnalysis(AnalysisResult{
		Detection: Detection{Network: "Base", Ecosystem: "Ethereum Ecosystem", Evidence: []Evidence{}},
	})

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	require.Equal(t, "token-launch", generic["promptId"])
	require.Equal(t, true, generic["webSearch"])
	require.Contains(t, generic, "analysis")
	require.Contains(t, generic, "response")

	var back BenchmarkResult
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, raw, back.RawResponse)
	require.Equal(t, "Base", back.Analysis.Detection.Network)
}
