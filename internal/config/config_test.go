package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	assert.Len(t, cfg.Prompts, 12)
	assert.Len(t, cfg.Models, 6)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 1, cfg.Runs)
	assert.False(t, cfg.WebSearchEnabled())

	assert.Equal(t, "results", cfg.Paths.Results)
	assert.Equal(t, "results/responses", cfg.Paths.Responses)
	assert.Equal(t, "dashboard/public/data", cfg.Paths.Dashboard)

	assert.Equal(t, "pattern", cfg.Classifier.Engine)
	assert.Equal(t, 3, cfg.Classifier.Votes)
	assert.Equal(t, 6, cfg.Classifier.Concurrency)
	assert.False(t, cfg.UseCache())

	assert.Equal(t, 2*time.Second, cfg.RateLimits["anthropic"])
	assert.Equal(t, 1500*time.Millisecond, cfg.RateLimits["openai"])
	assert.Equal(t, time.Second, cfg.RateLimits["google"])

	require.NoError(t, cfg.Validate())
}

func TestNew_DefaultsAreIndependent(t *testing.T) {
	a := New()
	a.RateLimits["anthropic"] = time.Minute
	a.Prompts[0].ID = "changed"

	b := New()
	assert.Equal(t, 2*time.Second, b.RateLimits["anthropic"])
	assert.Equal(t, "token-launch", b.Prompts[0].ID)
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
prompts:
  - id: wallet
    text: Build a wallet app.
    category: Infrastructure
models:
  - id: gpt-5.2
    provider: openai
    tier: flagship
    display_name: GPT-5.2
max_tokens: 8000
runs: 3
web_search: true
paths:
  results: out
  dashboard: site/data
classifier:
  engine: claude
  model: claude-opus-4-6
  votes: 5
  concurrency: 2
  cache: true
  cache_dir: .verdicts
rate_limits:
  openai: 3s
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Len(t, cfg.Prompts, 1)
	assert.Equal(t, "wallet", cfg.Prompts[0].ID)
	require.Len(t, cfg.Models, 1)
	assert.Equal(t, "GPT-5.2", cfg.Models[0].DisplayName)
	assert.Equal(t, 8000, cfg.MaxTokens)
	assert.Equal(t, 3, cfg.Runs)
	assert.True(t, cfg.WebSearchEnabled())

	assert.Equal(t, "out", cfg.Paths.Results)
	assert.Equal(t, "results/responses", cfg.Paths.Responses, "unset paths keep defaults")
	assert.Equal(t, "site/data", cfg.Paths.Dashboard)

	assert.Equal(t, "claude", cfg.Classifier.Engine)
	assert.Equal(t, "claude-opus-4-6", cfg.Classifier.Model)
	assert.Equal(t, 5, cfg.Classifier.Votes)
	assert.Equal(t, 2, cfg.Classifier.Concurrency)
	assert.True(t, cfg.UseCache())
	assert.Equal(t, ".verdicts", cfg.Classifier.CacheDir)

	assert.Equal(t, 3*time.Second, cfg.RateLimits["openai"])
	assert.Equal(t, 2*time.Second, cfg.RateLimits["anthropic"], "rate limits merge per provider")
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "runs: [not, a, number\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing chainbench.yaml")
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, "runs: 4\n")

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Runs)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown engine",
			yaml:    "classifier:\n  engine: gpt-judge\n",
			wantErr: "Engine",
		},
		{
			name: "unknown provider",
			yaml: `
models:
  - id: llama
    provider: meta
    tier: flagship
    display_name: Llama
`,
			wantErr: "Provider",
		},
		{
			name: "bad tier",
			yaml: `
models:
  - id: gpt-5.2
    provider: openai
    tier: top
    display_name: GPT
`,
			wantErr: "Tier",
		},
		{
			name: "prompt without text",
			yaml: `
prompts:
  - id: empty
    category: DeFi
`,
			wantErr: "Text",
		},
		{
			name: "duplicate prompt",
			yaml: `
prompts:
  - id: dup
    text: one
    category: DeFi
  - id: dup
    text: two
    category: NFT
`,
			wantErr: `duplicate prompt id "dup"`,
		},
		{
			name:    "even votes",
			yaml:    "classifier:\n  votes: 4\n",
			wantErr: "Votes",
		},
		{
			name:    "too many votes",
			yaml:    "classifier:\n  votes: 11\n",
			wantErr: "Votes",
		},
		{
			name:    "negative runs",
			yaml:    "runs: -2\n",
			wantErr: "Runs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, tt.yaml)

			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWrite_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Runs = 2
	cfg.RateLimits["google"] = 250 * time.Millisecond

	require.NoError(t, Write(filepath.Join(dir, FileName), cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestAPIKeys(t *testing.T) {
	env := map[string]string{
		"ANTHROPIC_API_KEY": "sk-ant",
		"GEMINI_API_KEY":    "gm",
	}
	keys := APIKeys(func(k string) string { return env[k] })
	assert.Equal(t, map[string]string{"anthropic": "sk-ant", "google": "gm"}, keys)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
