package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainbench/chainbench/internal/config"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/orchestration"
	"github.com/chainbench/chainbench/internal/spinner"
)

// loadConfig loads chainbench.yaml starting from the working directory.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return config.Load(wd)
}

// selection picks what a benchmark pass sends.
type selection struct {
	models    []string
	prompts   []string
	runs      int
	webSearch bool
	dryRun    bool
}

func (s *selection) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&s.models, "models", nil, "Models to include by id, name or provider (glob patterns, comma-separated)")
	cmd.Flags().StringSliceVar(&s.prompts, "prompts", nil, "Prompts to include by id or category (glob patterns, comma-separated)")
	cmd.Flags().IntVar(&s.runs, "runs", 0, "Times each prompt is sent to each model (default from chainbench.yaml)")
	cmd.Flags().BoolVar(&s.webSearch, "web-search", false, "Let providers search the web where supported")
	cmd.Flags().BoolVar(&s.dryRun, "dry-run", false, "Print the plan and estimated cost without calling any provider")
}

func (s *selection) options(cfg *config.Config) (orchestration.Options, error) {
	if s.runs < 0 {
		return orchestration.Options{}, fmt.Errorf("--runs must be positive, got %d", s.runs)
	}
	ms, err := orchestration.FilterModels(cfg.Models, s.models)
	if err != nil {
		return orchestration.Options{}, err
	}
	if len(ms) == 0 {
		return orchestration.Options{}, fmt.Errorf("no models match %s", strings.Join(s.models, ", "))
	}
	ps, err := orchestration.FilterPrompts(cfg.Prompts, s.prompts)
	if err != nil {
		return orchestration.Options{}, err
	}
	if len(ps) == 0 {
		return orchestration.Options{}, fmt.Errorf("no prompts match %s", strings.Join(s.prompts, ", "))
	}

	runs := cfg.Runs
	if s.runs > 0 {
		runs = s.runs
	}
	return orchestration.Options{
		Prompts:   ps,
		Models:    ms,
		Runs:      runs,
		WebSearch: s.webSearch || cfg.WebSearchEnabled(),
		MaxTokens: cfg.MaxTokens,
		DryRun:    s.dryRun,
	}, nil
}

// engineFlags override the classifier settings from chainbench.yaml.
type engineFlags struct {
	engine      string
	model       string
	concurrency int
	noCache     bool
	clearCache  bool
}

func (f *engineFlags) addFlags(cmd *cobra.Command, batched bool) {
	cmd.Flags().StringVar(&f.engine, "engine", "", "Classifier engine: pattern, claude or copilot (default from chainbench.yaml)")
	cmd.Flags().StringVar(&f.model, "classifier-model", "", "Model used by the LLM classifier engines")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Skip the classification verdict cache")
	cmd.Flags().BoolVar(&f.clearCache, "clear-cache", false, "Remove cached verdicts before classifying")
	if batched {
		cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 0, "Classifications in flight per batch (default from chainbench.yaml)")
	}
}

func (f *engineFlags) options(cfg *config.Config) (orchestration.ClassifyOptions, error) {
	o := orchestration.ClassifyOptions{
		Engine:      cfg.Classifier.Engine,
		Model:       cfg.Classifier.Model,
		Votes:       cfg.Classifier.Votes,
		Concurrency: cfg.Classifier.Concurrency,
	}
	if f.engine != "" {
		o.Engine = f.engine
	}
	if f.model != "" {
		o.Model = f.model
	}
	if f.concurrency < 0 {
		return o, fmt.Errorf("--concurrency must be positive, got %d", f.concurrency)
	}
	if f.concurrency > 0 {
		o.Concurrency = f.concurrency
	}
	if cfg.UseCache() && !f.noCache {
		o.CacheDir = cfg.Classifier.CacheDir
		o.ClearCache = f.clearCache
	}
	return o, nil
}

// startEngine builds the classifier engine behind a terminal spinner.
func startEngine(out io.Writer, co orchestration.ClassifyOptions) (*orchestration.Engine, error) {
	sp := spinner.StartIf(out, fmt.Sprintf("Starting the %s classifier...", engineName(co)))
	engine, err := orchestration.NewEngine(co)
	sp.Stop()
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	return engine, nil
}

// newMetrics returns nil when no metrics file was requested. The runners
// accept a nil *Metrics.
func newMetrics(path string) *orchestration.Metrics {
	if path == "" {
		return nil
	}
	return orchestration.NewMetrics()
}

func writeMetrics(m *orchestration.Metrics, path string) error {
	if m == nil {
		return nil
	}
	if err := m.WriteTextfile(path); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func anyWebSearch(responses []models.RawResponse) bool {
	for _, r := range responses {
		if r.WebSearch {
			return true
		}
	}
	return false
}

// progressPrinter prints one line per progress event. Events arrive from
// several goroutines, so writes are serialized.
func progressPrinter(w io.Writer) orchestration.ProgressListener {
	var mu sync.Mutex
	return func(ev orchestration.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()

		switch ev.EventType {
		case orchestration.EventCollectStart:
			fmt.Fprintf(w, "Sending %d call(s) across %d run(s)...\n", ev.Total, ev.TotalRuns) //nolint:errcheck
		case orchestration.EventRunStart:
			fmt.Fprintf(w, "\nRun %d/%d (%s)\n", ev.RunNum, ev.TotalRuns, ev.RunID) //nolint:errcheck
		case orchestration.EventCallComplete:
			line := fmt.Sprintf("✓ [%d/%d] %s (%v)", ev.Num, ev.Total, ev.Label, time.Duration(ev.DurationMs)*time.Millisecond)
			if network, ok := ev.Details["network"].(string); ok {
				line += " → " + network
			}
			fmt.Fprintln(w, line) //nolint:errcheck
		case orchestration.EventCallSkipped:
			fmt.Fprintf(w, "- [%d/%d] %s skipped (%v)\n", ev.Num, ev.Total, ev.Label, ev.Details["reason"]) //nolint:errcheck
		case orchestration.EventCallFailed:
			fmt.Fprintf(w, "✗ [%d/%d] %s: %v\n", ev.Num, ev.Total, ev.Label, ev.Err) //nolint:errcheck
		case orchestration.EventCollectDone:
			fmt.Fprintf(w, "\nCompleted %d/%d call(s)\n", ev.Num, ev.Total) //nolint:errcheck
		case orchestration.EventClassified:
			if tools, ok := ev.Details["tools"].([]string); ok {
				fmt.Fprintf(w, "[%d/%d] %s → tools: %s\n", ev.Num, ev.Total, ev.Label, strings.Join(tools, ", ")) //nolint:errcheck
				return
			}
			fmt.Fprintf(w, "[%d/%d] %s → %v / %v\n", ev.Num, ev.Total, ev.Label, ev.Details["ecosystem"], ev.Details["network"]) //nolint:errcheck
		case orchestration.EventClassifyFailed:
			fmt.Fprintf(w, "✗ [%d/%d] %s: %v\n", ev.Num, ev.Total, ev.Label, ev.Err) //nolint:errcheck
		case orchestration.EventBatchComplete:
			fmt.Fprintf(w, "--- Batch done: %d/%d complete ---\n", ev.Num, ev.Total) //nolint:errcheck
		}
	}
}
