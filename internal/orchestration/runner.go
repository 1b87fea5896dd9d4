package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chainbench/chainbench/internal/analysis"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/providers"
	"github.com/chainbench/chainbench/internal/storage"
)

// Estimated spend per provider call, in US dollars.
const (
	CostPerCallLow  = 0.15
	CostPerCallHigh = 0.30
)

// ProviderSource resolves provider names. *providers.Registry implements it.
type ProviderSource interface {
	Get(name string) (providers.Provider, error)
}

// Options selects what one benchmark pass sends.
type Options struct {
	Prompts   []models.Prompt
	Models    []models.ModelConfig
	Runs      int
	WebSearch bool
	// MaxTokens caps each completion; zero keeps the provider default.
	MaxTokens int
	// DryRun skips every provider call.
	DryRun bool
}

func (o Options) runs() int {
	if o.Runs < 1 {
		return 1
	}
	return o.Runs
}

// TotalCalls is the number of provider calls a pass makes.
func (o Options) TotalCalls() int {
	return len(o.Prompts) * len(o.Models) * o.runs()
}

// Plan summarizes a pass without running it.
type Plan struct {
	Prompts    []models.Prompt
	Models     []models.ModelConfig
	Runs       int
	WebSearch  bool
	TotalCalls int
	MinCost    float64
	MaxCost    float64
}

// PlanFor describes what Collect or Run would do with o.
func PlanFor(o Options) Plan {
	calls := o.TotalCalls()
	return Plan{
		Prompts:    o.Prompts,
		Models:     o.Models,
		Runs:       o.runs(),
		WebSearch:  o.WebSearch,
		TotalCalls: calls,
		MinCost:    float64(calls) * CostPerCallLow,
		MaxCost:    float64(calls) * CostPerCallHigh,
	}
}

// Runner sends every prompt to every model. Providers run in parallel; calls
// to one provider are sequential and paced.
type Runner struct {
	progress

	providers   ProviderSource
	pacer       *providers.Pacer
	analyzer    *analysis.Analyzer
	store       *storage.Store
	retryDelays []time.Duration
	metrics     *Metrics
	now         func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPacer replaces the default per-provider pacing.
func WithPacer(p *providers.Pacer) RunnerOption {
	return func(r *Runner) {
		r.pacer = p
	}
}

// WithAnalyzer sets the analyzer Run uses for inline classification.
func WithAnalyzer(a *analysis.Analyzer) RunnerOption {
	return func(r *Runner) {
		r.analyzer = a
	}
}

// WithStore persists every response as it completes.
func WithStore(s *storage.Store) RunnerOption {
	return func(r *Runner) {
		r.store = s
	}
}

// WithRetryDelays overrides the waits between retries of a retryable error.
func WithRetryDelays(d []time.Duration) RunnerOption {
	return func(r *Runner) {
		r.retryDelays = d
	}
}

// WithMetrics records provider calls and classifications.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithClock replaces time.Now for run ids and timestamps.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a runner resolving providers from src.
func NewRunner(src ProviderSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		providers:   src,
		pacer:       providers.NewPacer(providers.DefaultDelays),
		analyzer:    analysis.New(nil),
		retryDelays: providers.DefaultRetryDelays,
		now:         time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Collect gathers raw responses without classifying them.
func (r *Runner) Collect(ctx context.Context, o Options) ([]models.RawResponse, error) {
	var (
		mu        sync.Mutex
		responses []models.RawResponse
	)
	err := r.execute(ctx, o, func(_ context.Context, raw models.RawResponse, _ *ProgressEvent) error {
		mu.Lock()
		defer mu.Unlock()
		responses = append(responses, raw)
		if r.store != nil {
			return r.store.SaveResponse(raw)
		}
		return nil
	})
	return responses, err
}

// Run gathers responses and classifies each one as it arrives. A failed
// classification keeps the response with the failure sentinel analysis.
func (r *Runner) Run(ctx context.Context, o Options) ([]models.BenchmarkResult, error) {
	var (
		mu      sync.Mutex
		results []models.BenchmarkResult
	)
	err := r.execute(ctx, o, func(ctx context.Context, raw models.RawResponse, ev *ProgressEvent) error {
		a, err := r.analyzer.Analyze(ctx, raw.Response.Content, raw.PromptText)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Classification failed", "model", raw.Model.ID, "prompt", raw.PromptID, "error", err)
			a = analysis.FailedAnalysis()
			r.metrics.classified(OutcomeFailed)
		} else {
			r.metrics.classified(OutcomeOK)
		}
		ev.Details["network"] = a.Detection.Network
		ev.Details["ecosystem"] = a.Detection.Ecosystem
		ev.Details["strength"] = string(a.Detection.Strength)

		result := raw.WithAnalysis(a)
		mu.Lock()
		defer mu.Unlock()
		results = append(results, result)
		if r.store != nil {
			return r.store.SaveResult(result)
		}
		return nil
	})
	return results, err
}

// providerGroup is one provider and the selected models it serves.
type providerGroup struct {
	name     string
	provider providers.Provider
	models   []models.ModelConfig
}

// groupByProvider groups models by provider in first-seen order and resolves
// each provider. Providers without credentials resolve to nil.
func (r *Runner) groupByProvider(ms []models.ModelConfig) ([]*providerGroup, error) {
	var groups []*providerGroup
	byName := make(map[string]*providerGroup)
	available := 0
	for _, m := range ms {
		g, ok := byName[m.Provider]
		if !ok {
			p, err := r.providers.Get(m.Provider)
			switch {
			case err == nil:
				available++
			case errors.Is(err, providers.ErrNoProvider):
				slog.Warn("Skipping provider", "provider", m.Provider, "reason", err)
			default:
				return nil, fmt.Errorf("resolving provider %s: %w", m.Provider, err)
			}
			g = &providerGroup{name: m.Provider, provider: p}
			byName[m.Provider] = g
			groups = append(groups, g)
		}
		g.models = append(g.models, m)
	}
	if len(groups) > 0 && available == 0 {
		return nil, fmt.Errorf("%w: no API key for any selected provider", providers.ErrNoProvider)
	}
	return groups, nil
}

type responseHandler func(ctx context.Context, raw models.RawResponse, ev *ProgressEvent) error

func (r *Runner) execute(ctx context.Context, o Options, handle responseHandler) error {
	if o.DryRun {
		return nil
	}
	groups, err := r.groupByProvider(o.Models)
	if err != nil {
		return err
	}

	total := o.TotalCalls()
	runs := o.runs()
	r.notify(ProgressEvent{EventType: EventCollectStart, Total: total, TotalRuns: runs})

	var completed atomic.Int64
	for run := range runs {
		runID := fmt.Sprintf("run-%d-%d", r.now().UnixMilli(), run)
		r.notify(ProgressEvent{EventType: EventRunStart, RunID: runID, RunNum: run + 1, TotalRuns: runs, Total: total})

		g, gctx := errgroup.WithContext(ctx)
		for _, pg := range groups {
			g.Go(func() error {
				return r.collectProvider(gctx, o, pg, runID, total, &completed, handle)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	r.notify(ProgressEvent{EventType: EventCollectDone, Num: int(completed.Load()), Total: total, TotalRuns: runs})
	return nil
}

func (r *Runner) collectProvider(ctx context.Context, o Options, pg *providerGroup, runID string, total int, completed *atomic.Int64, handle responseHandler) error {
	if pg.provider == nil {
		for _, m := range pg.models {
			for range o.Prompts {
				n := int(completed.Add(1))
				r.metrics.providerCall(pg.name, OutcomeSkipped, 0)
				r.notify(ProgressEvent{EventType: EventCallSkipped, Label: m.DisplayName, Num: n, Total: total, RunID: runID,
					Details: map[string]any{"reason": "no API key"}})
			}
		}
		return nil
	}

	for _, prompt := range o.Prompts {
		for _, m := range pg.models {
			if err := r.pacer.Wait(ctx, pg.name); err != nil {
				return err
			}

			n := int(completed.Add(1))
			label := fmt.Sprintf("%s x %q", m.DisplayName, prompt.ID)
			r.notify(ProgressEvent{EventType: EventCallStart, Label: label, Num: n, Total: total, RunID: runID})

			req := providers.Request{Prompt: prompt.Text, Model: m.ID, WebSearch: o.WebSearch, MaxTokens: o.MaxTokens}
			start := time.Now()
			resp, err := providers.SendWithRetry(ctx, pg.provider, req, r.retryDelays)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Error("Provider call failed", "provider", pg.name, "model", m.ID, "prompt", prompt.ID, "error", err)
				r.metrics.providerCall(pg.name, OutcomeFailed, 0)
				r.notify(ProgressEvent{EventType: EventCallFailed, Label: label, Num: n, Total: total, RunID: runID, Err: err})
				continue
			}
			r.metrics.providerCall(pg.name, OutcomeOK, time.Since(start))

			raw := models.RawResponse{
				PromptID:       prompt.ID,
				PromptText:     prompt.Text,
				PromptCategory: prompt.Category,
				Model:          m,
				Response:       resp,
				Timestamp:      r.now().UTC(),
				RunID:          runID,
				WebSearch:      o.WebSearch,
			}
			ev := ProgressEvent{
				EventType:  EventCallComplete,
				Label:      label,
				Num:        n,
				Total:      total,
				RunID:      runID,
				DurationMs: int64(resp.LatencyMs),
				Details: map[string]any{
					"provider": resp.Provider,
					"model":    resp.Model,
					"tokens":   resp.TokensUsed,
				},
			}
			if err := handle(ctx, raw, &ev); err != nil {
				return fmt.Errorf("handling %s: %w", label, err)
			}
			r.notify(ev)
		}
	}
	return nil
}
