package grid

import (
	"slices"
	"testing"

	"github.com/chainbench/chainbench/internal/metrics"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var (
	opus  = models.ModelConfig{ID: "claude-opus-4-6", Provider: "anthropic", Tier: models.TierFlagship, DisplayName: "Claude Opus 4.6"}
	gpt   = models.ModelConfig{ID: "gpt-5.2", Provider: "openai", Tier: models.TierFlagship, DisplayName: "GPT-5.2"}
	flash = models.ModelConfig{ID: "gemini-3-flash-preview", Provider: "google", Tier: models.TierMidTier, DisplayName: "Gemini 3 Flash"}
)

type fixture struct {
	prompt       string
	model        models.ModelConfig
	network      string
	ecosystem    string
	behavior     models.Behavior
	completeness int
	latency      int
	confidence   int
}

func (f fixture) result() models.BenchmarkResult {
	behavior := f.behavior
	if behavior == "" {
		behavior = models.BehaviorJustBuilt
	}
	ecosystem := f.ecosystem
	if ecosystem == "" {
		ecosystem = f.network
	}
	return models.BenchmarkResult{
		RawResponse: models.RawResponse{
			PromptID:       f.prompt,
			PromptText:     "text of " + f.prompt,
			PromptCategory: "DeFi",
			Model:          f.model,
			Response:       models.ProviderResponse{LatencyMs: f.latency},
		},
		Analysis: models.AnalysisResult{
			Detection:    models.Detection{Network: f.network, Ecosystem: ecosystem, Confidence: f.confidence, Strength: models.StrengthWeak},
			Behavior:     models.BehaviorClassification{Behavior: behavior},
			Completeness: models.CompletenessScore{Score: f.completeness},
		},
	}
}

func results(fs ...fixture) []models.BenchmarkResult {
	out := make([]models.BenchmarkResult, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.result())
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil)
	require.True(t, g.Empty())
	require.NotNil(t, g.PromptIDs)
	require.Empty(t, g.PromptIDs)
	require.Empty(t, g.Models)
	require.Empty(t, g.Keys())
	_, ok := g.Cell("x", "y")
	require.False(t, ok)
}

func TestBuild_TieKeepsFirstSeenLabel(t *testing.T) {
	g := Build(results(
		fixture{prompt: "token-launch", model: opus, network: "Solana", confidence: 80},
		fixture{prompt: "token-launch", model: opus, network: "Sui", confidence: 40},
	))

	cell, ok := g.Cell("token-launch", opus.ID)
	require.True(t, ok)
	require.Equal(t, map[string]int{"Solana": 1, "Sui": 1}, cell.EcosystemCounts.Map())
	require.Equal(t, 2, cell.RunCount)
	require.Equal(t, "Solana", cell.Ecosystem)
	require.Equal(t, "Solana", cell.Network)
	// confidence comes from the last run, not an average
	require.Equal(t, 40, cell.Confidence)
}

func TestBuild_NetworkTieWithinOneEcosystem(t *testing.T) {
	g := Build(results(
		fixture{prompt: "dao-voting", model: gpt, network: "Base", ecosystem: "Ethereum Ecosystem"},
		fixture{prompt: "dao-voting", model: gpt, network: "Arbitrum", ecosystem: "Ethereum Ecosystem"},
	))

	cell, _ := g.Cell("dao-voting", gpt.ID)
	require.Equal(t, []models.LabelCount{{Label: "Base", Count: 1}, {Label: "Arbitrum", Count: 1}}, cell.NetworkCounts.Entries())
	require.Equal(t, "Base", cell.Network)
	require.Equal(t, map[string]int{"Ethereum Ecosystem": 2}, cell.EcosystemCounts.Map())
}

func TestBuild_PluralityAndMeans(t *testing.T) {
	g := Build(results(
		fixture{prompt: "memecoin", model: flash, network: "Solana", behavior: models.BehaviorAskedQuestions, completeness: 10, latency: 1000},
		fixture{prompt: "memecoin", model: flash, network: "Base", behavior: models.BehaviorJustBuilt, completeness: 20, latency: 1500},
		fixture{prompt: "memecoin", model: flash, network: "Base", behavior: models.BehaviorJustBuilt, completeness: 25, latency: 2001},
	))

	cell, _ := g.Cell("memecoin", flash.ID)
	require.Equal(t, "Base", cell.Network)
	require.Equal(t, models.BehaviorJustBuilt, cell.Behavior)
	require.Equal(t, 18, cell.Completeness) // 55/3 = 18.33
	require.Equal(t, 1500, cell.LatencyMs)  // 4501/3 = 1500.33
	require.Equal(t, 3, cell.RunCount)
}

func TestBuild_OrderingAndSideCollections(t *testing.T) {
	renamed := gpt
	renamed.DisplayName = "GPT 5.2 (renamed)"

	rs := results(
		fixture{prompt: "nft-marketplace", model: gpt, network: "Base"},
		fixture{prompt: "dao-voting", model: opus, network: "Solana"},
		fixture{prompt: "nft-marketplace", model: renamed, network: "Base"},
	)
	rs[0].PromptCategory = ""
	rs[2].PromptCategory = "NFT"
	rs[1].PromptText = ""

	g := Build(rs)
	require.Equal(t, []string{"nft-marketplace", "dao-voting"}, g.PromptIDs)
	require.Equal(t, []models.ModelConfig{renamed, opus}, g.Models)
	require.Equal(t, "NFT", g.Category("nft-marketplace"))
	require.Equal(t, "DeFi", g.Category("dao-voting"))
	require.Equal(t, "Unknown", g.Category("missing"))
	require.Equal(t, "text of nft-marketplace", g.PromptTexts["nft-marketplace"])
	require.NotContains(t, g.PromptTexts, "dao-voting")
	require.Equal(t, []string{Key("nft-marketplace", gpt.ID), Key("dao-voting", opus.ID)}, g.Keys())
}

func TestBuild_Invariants(t *testing.T) {
	rs := results(
		fixture{prompt: "a", model: opus, network: "Base", completeness: 40, latency: 100},
		fixture{prompt: "a", model: gpt, network: "Solana", completeness: 55, latency: 333},
		fixture{prompt: "b", model: opus, network: "Sui", completeness: 71, latency: 120},
		fixture{prompt: "a", model: opus, network: "Base", completeness: 45, latency: 101},
		fixture{prompt: "b", model: opus, network: "Aptos", completeness: 20, latency: 90},
		fixture{prompt: "a", model: gpt, network: "Solana", completeness: 56, latency: 334},
	)
	g := Build(rs)

	for key, cell := range g.Cells {
		require.Equal(t, cell.RunCount, cell.EcosystemCounts.Total(), key)
		require.Equal(t, cell.RunCount, cell.NetworkCounts.Total(), key)

		var comp, lat []int
		for _, r := range rs {
			if Key(r.PromptID, r.Model.ID) == key {
				comp = append(comp, r.Analysis.Completeness.Score)
				lat = append(lat, r.Response.LatencyMs)
			}
		}
		require.Equal(t, metrics.RoundedMean(comp), cell.Completeness, key)
		require.Equal(t, metrics.RoundedMean(lat), cell.LatencyMs, key)
	}
}

func TestBuild_IdempotentAndPure(t *testing.T) {
	rs := results(
		fixture{prompt: "a", model: opus, network: "Base", completeness: 40, latency: 100},
		fixture{prompt: "a", model: opus, network: "Arbitrum", completeness: 60, latency: 200},
		fixture{prompt: "b", model: gpt, network: "Solana", completeness: 10, latency: 50},
	)
	snapshot := slices.Clone(rs)

	first := Build(rs)
	second := Build(rs)

	if diff := cmp.Diff(first, second, cmp.AllowUnexported(models.Tally{})); diff != "" {
		t.Errorf("rebuild mismatch (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, rs, cmp.AllowUnexported(models.Tally{})); diff != "" {
		t.Errorf("Build modified its input (-before +after):\n%s", diff)
	}
}

func TestGrid_ModelCells(t *testing.T) {
	g := Build(results(
		fixture{prompt: "a", model: opus, network: "Base"},
		fixture{prompt: "b", model: gpt, network: "Solana"},
		fixture{prompt: "c", model: opus, network: "Sui"},
	))
	cells := g.ModelCells(opus.ID, g.PromptIDs)
	require.Len(t, cells, 2)
	require.Equal(t, "Base", cells[0].Network)
	require.Equal(t, "Sui", cells[1].Network)
}
