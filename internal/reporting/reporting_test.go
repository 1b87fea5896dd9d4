package reporting

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainbench/chainbench/internal/analysis"
	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/models"
)

var (
	reportTime = time.Date(2026, 2, 11, 8, 35, 40, 0, time.UTC)
	opus       = models.ModelConfig{ID: "claude-opus-4-6", Provider: "anthropic", Tier: models.TierFlagship, DisplayName: "Claude Opus 4.6"}
	flash      = models.ModelConfig{ID: "gemini-3-flash-preview", Provider: "google", Tier: models.TierMidTier, DisplayName: "Gemini 3 Flash"}
)

func sampleResult(promptID string, m models.ModelConfig, content string, latency int) models.BenchmarkResult {
	raw := models.RawResponse{
		PromptID:       promptID,
		PromptText:     "Build it",
		PromptCategory: "DeFi",
		Model:          m,
		Response:       models.ProviderResponse{Content: content, Model: m.ID, Provider: m.Provider, TokensUsed: 900, LatencyMs: latency},
		Timestamp:      reportTime,
		RunID:          "run-1-0",
	}
	return raw.WithAnalysis(analysis.AnalyzeResponse(content))
}

func sampleResults() []models.BenchmarkResult {
	return []models.BenchmarkResult{
		sampleResult("token-launch", opus, "Add anchor_lang to Cargo.toml.", 12300),
		sampleResult("token-launch", flash, "Add anchor_lang to Cargo.toml.", 4100),
		sampleResult("memecoin", opus, "Add anchor_lang to Cargo.toml.", 9000),
	}
}

func TestConsole_PrintGrid(t *testing.T) {
	results := sampleResults()
	var buf bytes.Buffer
	NewConsole(&buf).PrintGrid(grid.Build(results))

	out := buf.String()
	assert.Contains(t, out, "CHAIN BIAS BENCHMARK RESULTS")
	assert.Contains(t, out, "Claude Opus 4.6")
	assert.Contains(t, out, "Solana 100% 12.3s")
	assert.Contains(t, out, "Solana (2/2)")
	assert.Contains(t, out, "Behavior Summary:")
	assert.NotContains(t, out, "\x1b[", "no styling outside a terminal")

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "memecoin") {
			assert.Contains(t, line, emptyCell, "unanswered cells are marked")
		}
	}
}

func TestConsole_PrintGridEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).PrintGrid(grid.Build(nil))
	assert.Equal(t, "No results to show.\n", buf.String())
}

func TestPad(t *testing.T) {
	assert.Equal(t, "abc   ", pad("abc", 6))
	assert.Equal(t, "abcde", pad("abcdefgh", 5))
	assert.Equal(t, "日本  ", pad("日本", 6), "wide runes count double")
}

func TestConsole_CellWidth(t *testing.T) {
	c := &Console{}
	assert.Equal(t, maxCellWidth, c.cellWidth(6))

	c.width = 80
	assert.Equal(t, minCellWidth, c.cellWidth(6))
	c.width = 200
	assert.Equal(t, maxCellWidth, c.cellWidth(2))
}

func TestMarkdown(t *testing.T) {
	results := sampleResults()
	md := Markdown(grid.Build(results), results, reportTime)

	assert.Contains(t, md, "# Chain Bias Benchmark Results")
	assert.Contains(t, md, "Generated: 2026-02-11T08:35:40.000Z")
	assert.Contains(t, md, "Total results: 3")
	assert.Contains(t, md, "| Prompt | Claude Opus 4.6 (flagship) | Gemini 3 Flash (mid-tier) |")
	assert.Contains(t, md, "| token-launch | **Solana** (100%) 12.3s | **Solana** (100%) 4.1s |")
	assert.Contains(t, md, "| memecoin | **Solana** (100%) 9.0s | — |")
	assert.Contains(t, md, "| Claude Opus 4.6 | flagship | **Solana** | 2/2 |")
	assert.Contains(t, md, "| Solana | 3 | 100.0% |")
	assert.Contains(t, md, "## Ecosystem Choice by Category")
	assert.Contains(t, md, "### DeFi\n\n| Model | Ecosystems |")
	assert.Contains(t, md, "| Claude Opus 4.6 | Solana: 2 |")
	assert.Contains(t, md, "| Gemini 3 Flash | Solana: 1 |")
	assert.Contains(t, md, "| Claude Opus 4.6 | 10650 ms | 1650 ms |")
	assert.Contains(t, md, "| Gemini 3 Flash | 4100 ms | 0 ms |")
	assert.Contains(t, md, "### anthropic")
	assert.Contains(t, md, "- **Gemini 3 Flash** (mid-tier): Solana")
}

func TestWriteCSV(t *testing.T) {
	results := sampleResults()
	results[0].Analysis.Detection.Evidence = []models.Evidence{{Signal: "anchor, \"quoted\""}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvColumns, rows[0])

	first := rows[1]
	assert.Equal(t, "token-launch", first[0])
	assert.Equal(t, "Solana", first[5])
	assert.Equal(t, `anchor, "quoted"`, first[8], "fields with commas and quotes survive")
	assert.Equal(t, "12300", first[17])
	assert.Equal(t, "12.3", first[18])
	assert.Equal(t, "2026-02-11T08:35:40.000Z", first[20])
}

func TestHTML(t *testing.T) {
	results := sampleResults()
	page, err := HTML(grid.Build(results), results, reportTime)
	require.NoError(t, err)

	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<h1>Chain Bias Benchmark Results</h1>")
	assert.Contains(t, page, `background: #9945ff`)
	assert.Contains(t, page, "3 (100.0%)")
	assert.Contains(t, page, "<h2>Ecosystem Choice by Category</h2>")
	assert.Contains(t, page, "<h2>Latency by Model</h2>")
}

func TestSave(t *testing.T) {
	results := sampleResults()
	dir := filepath.Join(t.TempDir(), "run")

	paths, err := Save(dir, grid.Build(results), results, reportTime)
	require.NoError(t, err)

	for _, p := range []string{paths.Markdown, paths.HTML, paths.CSV} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Equal(t, filepath.Join(dir, CSVFile), paths.CSV)
}
