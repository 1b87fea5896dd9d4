package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainbench/chainbench/internal/analysis"
	"github.com/chainbench/chainbench/internal/config"
	"github.com/chainbench/chainbench/internal/export"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/storage"
)

func TestClassifyCommand_PatternEngine(t *testing.T) {
	setupProject(t)

	_, err := runCLI(t, "collect")
	require.NoError(t, err)
	responsesDir := onlyDir(t, filepath.Join("results", "responses", "run-*"))

	out, err := runCLI(t, "classify", responsesDir, "-c", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 4 responses from 1 dir(s)")
	assert.Contains(t, out, "Classifying with the pattern engine (concurrency: 3)")
	assert.Contains(t, out, "--- Batch done: 3/4 complete ---")
	assert.Contains(t, out, "--- Batch done: 4/4 complete ---")
	assert.Contains(t, out, "Dashboard data exported: ")

	chainsDir := onlyDir(t, filepath.Join("results", "chains", "run-*-standard"))
	results, err := storage.LoadResults(chainsDir)
	require.NoError(t, err)
	assert.Len(t, results, 4)

	index := export.LoadIndex(config.DefaultDashboardDir)
	require.Len(t, index, 1)
	assert.Equal(t, 4, index[0].ResultCount)
	assert.FileExists(t, filepath.Join(config.DefaultDashboardDir, export.LatestFile))
}

func TestFinishClassification_ReportsFailures(t *testing.T) {
	model := models.ModelConfig{ID: "canned-large", Provider: "mock", Tier: models.TierFlagship, DisplayName: "Canned Large"}
	ok := models.RawResponse{PromptID: "token-launch", Model: model, Response: models.ProviderResponse{Content: "anchor_lang"}}
	failed := models.RawResponse{PromptID: "memecoin", Model: model, Response: models.ProviderResponse{Content: "?"}}
	results := []models.BenchmarkResult{
		ok.WithAnalysis(analysis.AnalyzeResponse(ok.Response.Content)),
		failed.WithAnalysis(analysis.FailedAnalysis()),
	}

	var buf bytes.Buffer
	require.NoError(t, finishClassification(&buf, config.New(), &exportFlags{skip: true}, results))
	assert.Contains(t, buf.String(), "Classification failed for 1 of 2 response(s), recorded as Chain-Agnostic")

	buf.Reset()
	require.NoError(t, finishClassification(&buf, config.New(), &exportFlags{skip: true}, results[:1]))
	assert.NotContains(t, buf.String(), "Classification failed")
}

func TestClassifyCommand_Errors(t *testing.T) {
	setupProject(t)

	_, err := runCLI(t, "classify", "missing-dir")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNoResults)

	_, err = runCLI(t, "collect", "--prompts", "memecoin")
	require.NoError(t, err)
	responsesDir := onlyDir(t, filepath.Join("results", "responses", "run-*"))

	_, err = runCLI(t, "classify", responsesDir, "--tools", "--no-export")
	assert.EqualError(t, err, "tool classification needs an LLM engine")

	_, err = runCLI(t, "classify", responsesDir, "--engine", "gpt")
	assert.ErrorContains(t, err, "gpt")

	_, err = runCLI(t, "classify", responsesDir, "-c", "-2")
	assert.EqualError(t, err, "--concurrency must be positive, got -2")
}

func TestReclassifyCommand_KeepsScores(t *testing.T) {
	setupProject(t)

	_, err := runCLI(t, "run")
	require.NoError(t, err)
	runDir := onlyDir(t, filepath.Join("results", "run-*-standard"))
	before, err := storage.LoadResults(runDir)
	require.NoError(t, err)

	out, err := runCLI(t, "reclassify", runDir, "--no-export")
	require.NoError(t, err)
	assert.Contains(t, out, "Re-classification complete: 0 of 4 changed")
	assert.NotContains(t, out, "Dashboard data exported")

	after, err := storage.LoadResults(onlyDir(t, filepath.Join("results", "chains", "run-*")))
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Analysis, after[i].Analysis, "the pattern engine is deterministic")
	}
}

func TestReportCommand(t *testing.T) {
	setupProject(t)

	_, err := runCLI(t, "run", "--prompts", "token-launch")
	require.NoError(t, err)
	runDir := onlyDir(t, filepath.Join("results", "run-*"))

	out, err := runCLI(t, "report", runDir, "--format", "json")
	require.NoError(t, err)
	var data export.RunData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, 2, data.Meta.ResultCount)
	assert.Equal(t, []string{"token-launch"}, data.Grid.PromptIDs)

	out, err = runCLI(t, "report", runDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 results from 1 dir(s)")
	assert.Contains(t, out, "Markdown report: ")

	_, err = runCLI(t, "report", runDir, "--format", "xml")
	assert.EqualError(t, err, `unsupported format "xml": must be table or json`)
}

func TestExportCommand(t *testing.T) {
	setupProject(t)

	_, err := runCLI(t, "run", "--prompts", "memecoin")
	require.NoError(t, err)
	runDir := onlyDir(t, filepath.Join("results", "run-*"))

	out, err := runCLI(t, "export", runDir, "-o", "site", "--gzip")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 results from 1 dir(s)")

	assert.FileExists(t, filepath.Join("site", export.LatestFile))
	assert.FileExists(t, filepath.Join("site", export.LatestFile+".gz"))
	require.Len(t, export.LoadIndex("site"), 1)

	_, err = runCLI(t, "export", "missing-dir", "--tools")
	assert.ErrorIs(t, err, storage.ErrNoResults)
}
