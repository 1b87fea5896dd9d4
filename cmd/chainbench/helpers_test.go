package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainbench/chainbench/internal/config"
	"github.com/chainbench/chainbench/internal/models"
)

// setupProject writes a chainbench.yaml with two prompts and two canned
// models into a temp dir and makes it the working directory.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfg := config.New()
	cfg.Prompts = cfg.Prompts[:2]
	cfg.Models = []models.ModelConfig{
		{ID: "canned-large", Provider: "mock", Tier: models.TierFlagship, DisplayName: "Canned Large"},
		{ID: "canned-small", Provider: "mock", Tier: models.TierMidTier, DisplayName: "Canned Small"},
	}
	require.NoError(t, config.Write(filepath.Join(dir, config.FileName), cfg))

	t.Chdir(dir)
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// onlyDir returns the single directory matching pattern.
func onlyDir(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(pattern)
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one match for %s", pattern)
	return matches[0]
}
