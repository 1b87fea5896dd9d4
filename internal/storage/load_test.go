package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chainbench/chainbench/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestLoad_MissingDirsAndEmptyInput(t *testing.T) {
	_, err := LoadResults(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = LoadResponsesOrResults(t.TempDir())
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = LoadResponsesOrResults()
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestLoadJSONL_SkipsBlankLinesAndTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	a, err := json.Marshal(response("a", "m", "one"))
	require.NoError(t, err)
	b, err := json.Marshal(response("b", "m", "two"))
	require.NoError(t, err)

	content := string(a) + "\n\n" + string(b) + "\n" + `{"promptId":"c","prom`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ResponsesFile), []byte(content), 0644))

	got, err := LoadResponsesOrResults(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].PromptID)
}

func TestLoadJSONL_CorruptMiddleLineFails(t *testing.T) {
	dir := t.TempDir()
	a, err := json.Marshal(response("a", "m", "one"))
	require.NoError(t, err)

	content := "{broken\n" + string(a) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ResponsesFile), []byte(content), 0644))

	_, err = LoadResponsesOrResults(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadResults_FallsBackToIndividualFiles(t *testing.T) {
	dir := t.TempDir()
	r := response("a", "m", "Use Base.")
	writeFile(t, filepath.Join(dir, "run-1_a_m.json"), r.WithAnalysis(analysis.AnalyzeResponse("Deploy to Base")))
	writeFile(t, filepath.Join(dir, ".hidden.json"), r.WithAnalysis(analysis.FailedAnalysis()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))

	got, err := LoadResults(dir)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Base", got[0].Analysis.Detection.Network)
}

func TestLoadResponsesOrResults_FallbackSkipsEmptyContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), response("a", "m", "raw"))
	writeFile(t, filepath.Join(dir, "b.json"), response("b", "m", "classified").WithAnalysis(analysis.AnalyzeResponse("x")))
	writeFile(t, filepath.Join(dir, "c.json"), response("c", "m", ""))

	got, err := LoadResponsesOrResults(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "classified", got[1].Response.Content, "analyses are dropped, responses kept")
}

func TestLoadResponsesOrResults_Precedence(t *testing.T) {
	responsesDir := t.TempDir()
	s, err := Open(responsesDir)
	require.NoError(t, err)
	require.NoError(t, s.SaveResponse(response("from-responses", "m", "x")))
	require.NoError(t, s.SaveResult(response("from-results", "m", "y").WithAnalysis(analysis.AnalyzeResponse("y"))))

	resultsDir := t.TempDir()
	s, err = Open(resultsDir)
	require.NoError(t, err)
	r := response("old-format", "m", "Use Solana.")
	r.WebSearch = true
	require.NoError(t, s.SaveResult(r.WithAnalysis(analysis.AnalyzeResponse(r.Response.Content))))

	got, err := LoadResponsesOrResults(responsesDir, filepath.Join(t.TempDir(), "missing"), resultsDir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "from-responses", got[0].PromptID)
	assert.Equal(t, "old-format", got[1].PromptID)
	assert.True(t, got[1].WebSearch)
	assert.Equal(t, "Use Solana.", got[1].Response.Content)
}
