package orchestration

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/chainbench/chainbench/internal/analysis"
	"github.com/chainbench/chainbench/internal/cache"
	"github.com/chainbench/chainbench/internal/classifier"
	"github.com/chainbench/chainbench/internal/detection"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/storage"
)

// DefaultConcurrency is the number of classifications in flight per batch.
const DefaultConcurrency = 6

// ClassifyOptions selects the classification engine. Model is passed through
// to the engine explicitly so concurrent passes can use different models.
type ClassifyOptions struct {
	Engine      string
	Model       string
	Votes       int
	Concurrency int
	// CacheDir enables verdict caching when non-empty.
	CacheDir string
	// ClearCache drops every cached verdict in CacheDir first.
	ClearCache bool
}

// PartialFailureError reports that some classifications fell back to the
// failure sentinel. The accompanying results are still complete.
type PartialFailureError struct {
	Failed int
	Total  int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d classifications failed", e.Failed, e.Total)
}

// ToolDetector extracts developer tools from a response.
type ToolDetector interface {
	DetectTools(ctx context.Context, text string) (models.ToolDetection, error)
}

// Engine is the set of detectors built for one classification pass.
type Engine struct {
	Network detection.Detector
	// Tools is nil for the pattern engine.
	Tools ToolDetector

	backend classifier.Backend
}

// NewEngine builds the detectors for o.Engine. The pattern engine needs no
// backend and cannot extract tools.
func NewEngine(o ClassifyOptions) (*Engine, error) {
	if o.ClearCache && o.CacheDir != "" {
		if err := cache.New(o.CacheDir).Clear(); err != nil {
			return nil, fmt.Errorf("clearing verdict cache: %w", err)
		}
		slog.Debug("Cleared verdict cache", "dir", o.CacheDir)
	}

	engine := o.Engine
	if engine == "" {
		engine = classifier.EnginePattern
	}
	if engine == classifier.EnginePattern {
		return &Engine{Network: detection.NewPatternDetector(nil)}, nil
	}

	backend, err := classifier.NewBackend(classifier.Options{Engine: engine, Model: o.Model})
	if err != nil {
		return nil, err
	}

	var network detection.Detector = classifier.NewLLMDetector(backend, o.Votes)
	if o.CacheDir != "" {
		model := o.Model
		if model == "" {
			model = classifier.DefaultModel
		}
		votes := o.Votes
		if votes < 1 {
			votes = classifier.DefaultVotes
		}
		network = cache.NewDetector(network, cache.New(o.CacheDir), engine, model, votes)
	}
	return &Engine{
		Network: network,
		Tools:   classifier.NewToolDetector(backend),
		backend: backend,
	}, nil
}

// Close releases the backend, if it holds any resources.
func (e *Engine) Close() error {
	if s, ok := e.backend.(interface{ Stop() error }); ok {
		return s.Stop()
	}
	return nil
}

// Classifier classifies stored responses in bounded batches. A failing
// response never aborts the batch: it is logged, counted and kept with the
// failure sentinel.
type Classifier struct {
	progress

	analyzer    *analysis.Analyzer
	network     detection.Detector
	tools       ToolDetector
	concurrency int
	store       *storage.Store
	metrics     *Metrics
}

// ClassifierConfig configures a Classifier.
type ClassifierConfig struct {
	Engine      *Engine
	Concurrency int
	// Store receives every result once its batch settles.
	Store   *storage.Store
	Metrics *Metrics
}

// NewClassifier creates a batch classifier.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	n := cfg.Concurrency
	if n < 1 {
		n = DefaultConcurrency
	}
	var network detection.Detector
	var tools ToolDetector
	if cfg.Engine != nil {
		network, tools = cfg.Engine.Network, cfg.Engine.Tools
	}
	if network == nil {
		network = detection.NewPatternDetector(nil)
	}
	return &Classifier{
		analyzer:    analysis.New(network),
		network:     network,
		tools:       tools,
		concurrency: n,
		store:       cfg.Store,
		metrics:     cfg.Metrics,
	}
}

// Classify analyzes every response. The error is a *PartialFailureError when
// only some classifications failed.
func (c *Classifier) Classify(ctx context.Context, responses []models.RawResponse) ([]models.BenchmarkResult, error) {
	classify := func(ctx context.Context, r models.RawResponse) (models.BenchmarkResult, error) {
		a, err := c.analyzer.Analyze(ctx, r.Response.Content, r.PromptText)
		if err != nil {
			return r.WithAnalysis(analysis.FailedAnalysis()), err
		}
		return r.WithAnalysis(a), nil
	}
	var save func(models.BenchmarkResult) error
	if c.store != nil {
		save = c.store.SaveResult
	}
	return runBatches(ctx, c, responses, rawKey, classify, describeResult, save)
}

// Reclassify replaces the detection of existing results and keeps their
// behavior and completeness. A failed detection keeps the old one. changed
// counts results whose network label moved.
func (c *Classifier) Reclassify(ctx context.Context, results []models.BenchmarkResult) (out []models.BenchmarkResult, changed int, err error) {
	reclassify := func(ctx context.Context, r models.BenchmarkResult) (models.BenchmarkResult, error) {
		d, err := c.network.Detect(ctx, r.Response.Content, r.PromptText)
		if err != nil {
			return r, err
		}
		next := r
		next.Analysis.Detection = d
		return next, nil
	}
	var save func(models.BenchmarkResult) error
	if c.store != nil {
		save = c.store.SaveResult
	}
	out, err = runBatches(ctx, c, results, func(r models.BenchmarkResult) models.RawResponse { return r.RawResponse }, reclassify, describeResult, save)
	for i := range out {
		if out[i].Analysis.Detection.Network != results[i].Analysis.Detection.Network {
			changed++
		}
	}
	return out, changed, err
}

// ClassifyTools extracts the developer tools of every response. Failures keep
// an empty tool list with failure reasoning.
func (c *Classifier) ClassifyTools(ctx context.Context, responses []models.RawResponse) ([]models.ToolResult, error) {
	if c.tools == nil {
		return nil, fmt.Errorf("tool classification needs an LLM engine")
	}
	classify := func(ctx context.Context, r models.RawResponse) (models.ToolResult, error) {
		td, err := c.tools.DetectTools(ctx, r.Response.Content)
		if err != nil {
			return models.ToolResult{
				RawResponse:   r,
				ToolDetection: models.ToolDetection{Tools: []string{}, Reasoning: analysis.FailureEvidence},
			}, err
		}
		return models.ToolResult{RawResponse: r, ToolDetection: td}, nil
	}
	describe := func(r models.ToolResult) map[string]any {
		return map[string]any{"tools": r.ToolDetection.Tools}
	}
	var save func(models.ToolResult) error
	if c.store != nil {
		save = c.store.SaveToolResult
	}
	return runBatches(ctx, c, responses, rawKey, classify, describe, save)
}

func rawKey(r models.RawResponse) models.RawResponse { return r }

func describeResult(r models.BenchmarkResult) map[string]any {
	d := r.Analysis.Detection
	return map[string]any{
		"network":   d.Network,
		"ecosystem": d.Ecosystem,
		"strength":  string(d.Strength),
	}
}

// runBatches applies fn to items in batches of c.concurrency. Every batch
// settles before its results are saved and the next batch starts. fn returns
// a usable fallback value alongside any error.
func runBatches[In, Out any](
	ctx context.Context,
	c *Classifier,
	items []In,
	raw func(In) models.RawResponse,
	fn func(context.Context, In) (Out, error),
	describe func(Out) map[string]any,
	save func(Out) error,
) ([]Out, error) {
	total := len(items)
	out := make([]Out, 0, total)
	failed := 0

	for start := 0; start < total; start += c.concurrency {
		end := min(start+c.concurrency, total)
		batch := make([]Out, end-start)
		errs := make([]error, end-start)

		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i := start; i < end; i++ {
			g.Go(func() error {
				batch[i-start], errs[i-start] = fn(ctx, items[i])
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return out, err
		}

		for j, result := range batch {
			r := raw(items[start+j])
			label := fmt.Sprintf("%s x %q", r.Model.DisplayName, r.PromptID)
			ev := ProgressEvent{Label: label, Num: start + j + 1, Total: total}
			if err := errs[j]; err != nil {
				failed++
				slog.Error("Classification failed", "model", r.Model.ID, "prompt", r.PromptID, "error", err)
				c.metrics.classified(OutcomeFailed)
				ev.EventType, ev.Err = EventClassifyFailed, err
			} else {
				c.metrics.classified(OutcomeOK)
				ev.EventType, ev.Details = EventClassified, describe(result)
			}
			c.notify(ev)

			out = append(out, result)
			if save != nil {
				if err := save(result); err != nil {
					return out, fmt.Errorf("saving %s: %w", label, err)
				}
			}
		}
		c.notify(ProgressEvent{EventType: EventBatchComplete, Num: end, Total: total})
	}

	if failed > 0 {
		return out, &PartialFailureError{Failed: failed, Total: total}
	}
	return out, nil
}
