package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/providers"
	"github.com/chainbench/chainbench/internal/storage"
)

var fixedNow = time.Date(2026, 2, 11, 8, 35, 40, 0, time.UTC)

func mockProvider(ctrl *gomock.Controller, name string) *providers.MockProvider {
	p := providers.NewMockProvider(ctrl)
	p.EXPECT().Name().Return(name).AnyTimes()
	return p
}

func reply(provider, model, content string) models.ProviderResponse {
	return models.ProviderResponse{Content: content, Model: model, Provider: provider, TokensUsed: 42, LatencyMs: 1200}
}

// newTestRunner returns a runner with no pacing, instant retries and a
// fixed clock, plus a recorder of its events.
func newTestRunner(reg *providers.Registry, opts ...RunnerOption) (*Runner, *eventLog) {
	base := []RunnerOption{
		WithPacer(providers.NewPacer(map[string]time.Duration{
			providers.Anthropic: 0, providers.OpenAI: 0, providers.Google: 0, providers.Mock: 0,
		})),
		WithRetryDelays([]time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}),
		WithClock(func() time.Time { return fixedNow }),
	}
	r := NewRunner(reg, append(base, opts...)...)
	log := &eventLog{}
	r.OnProgress(log.record)
	return r, log
}

type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) record(e ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) count(t EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.EventType == t {
			n++
		}
	}
	return n
}

func TestPlanFor(t *testing.T) {
	p := PlanFor(Options{Prompts: samplePrompts(), Models: sampleModels(), Runs: 2})
	assert.Equal(t, 24, p.TotalCalls)
	assert.InDelta(t, 3.60, p.MinCost, 1e-9)
	assert.InDelta(t, 7.20, p.MaxCost, 1e-9)

	p = PlanFor(Options{Prompts: samplePrompts(), Models: sampleModels()})
	assert.Equal(t, 1, p.Runs, "runs default to one")
	assert.Equal(t, 12, p.TotalCalls)
}

func TestRunner_DryRunMakesNoCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := providers.NewRegistry(nil, mockProvider(ctrl, providers.Anthropic))

	r, log := newTestRunner(reg)
	responses, err := r.Collect(context.Background(), Options{
		Prompts: samplePrompts(), Models: sampleModels()[:2], DryRun: true,
	})
	require.NoError(t, err)
	assert.Empty(t, responses)
	assert.Empty(t, log.events)
}

func TestRunner_CollectGroupsByProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	anthropic := mockProvider(ctrl, providers.Anthropic)
	openai := mockProvider(ctrl, providers.OpenAI)
	anthropic.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req providers.Request) (models.ProviderResponse, error) {
			return reply(providers.Anthropic, req.Model, "Use Foundry and deploy to Base."), nil
		}).Times(6)
	openai.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req providers.Request) (models.ProviderResponse, error) {
			assert.True(t, req.WebSearch)
			return reply(providers.OpenAI, req.Model, "Anchor program on Solana."), nil
		}).Times(3)

	reg := providers.NewRegistry(nil, anthropic, openai)

	dir := t.TempDir()
	store, err := storage.Open(dir)
	require.NoError(t, err)

	r, log := newTestRunner(reg, WithStore(store))
	responses, err := r.Collect(context.Background(), Options{
		Prompts:   samplePrompts(),
		Models:    sampleModels()[:3],
		WebSearch: true,
	})
	require.NoError(t, err)
	require.Len(t, responses, 9)

	for _, raw := range responses {
		assert.Equal(t, fmt.Sprintf("run-%d-0", fixedNow.UnixMilli()), raw.RunID)
		assert.True(t, raw.WebSearch)
		assert.Equal(t, raw.Model.Provider, raw.Response.Provider)
		assert.NotEmpty(t, raw.PromptCategory)
	}

	saved, err := storage.LoadResponsesOrResults(dir)
	require.NoError(t, err)
	assert.Len(t, saved, 9)

	assert.Equal(t, 9, log.count(EventCallStart))
	assert.Equal(t, 9, log.count(EventCallComplete))
	assert.Equal(t, 1, log.count(EventCollectDone))
}

func TestRunner_SkipsProvidersWithoutKeys(t *testing.T) {
	reg := providers.NewRegistry(nil)
	ms := []models.ModelConfig{
		{ID: "mock-model", Provider: providers.Mock, Tier: models.TierFlagship, DisplayName: "Mock"},
		{ID: "gemini-3-pro", Provider: providers.Google, Tier: models.TierFlagship, DisplayName: "Gemini 3 Pro"},
	}

	metrics := NewMetrics()
	r, log := newTestRunner(reg, WithMetrics(metrics))
	responses, err := r.Collect(context.Background(), Options{Prompts: samplePrompts(), Models: ms})
	require.NoError(t, err)
	assert.Len(t, responses, 3, "only the mock provider answers")
	assert.Equal(t, 3, log.count(EventCallSkipped))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.providerCalls.WithLabelValues(providers.Google, OutcomeSkipped)))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.providerCalls.WithLabelValues(providers.Mock, OutcomeOK)))
}

func TestRunner_NoProviderAvailable(t *testing.T) {
	reg := providers.NewRegistry(map[string]string{})
	r, _ := newTestRunner(reg)

	_, err := r.Collect(context.Background(), Options{Prompts: samplePrompts(), Models: sampleModels()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, providers.ErrNoProvider))
}

func TestRunner_RetriesTransientErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mockProvider(ctrl, providers.Anthropic)
	gomock.InOrder(
		p.EXPECT().Send(gomock.Any(), gomock.Any()).Return(models.ProviderResponse{}, errors.New("529 overloaded")),
		p.EXPECT().Send(gomock.Any(), gomock.Any()).Return(models.ProviderResponse{}, errors.New("HTTP 429: rate limit")),
		p.EXPECT().Send(gomock.Any(), gomock.Any()).Return(reply(providers.Anthropic, "claude-opus-4-6", "ok"), nil),
	)

	reg := providers.NewRegistry(nil, p)
	r, _ := newTestRunner(reg)

	responses, err := r.Collect(context.Background(), Options{
		Prompts: samplePrompts()[:1], Models: sampleModels()[:1],
	})
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "ok", responses[0].Response.Content)
}

func TestRunner_FailedCallDoesNotStopProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mockProvider(ctrl, providers.Anthropic)
	p.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req providers.Request) (models.ProviderResponse, error) {
			if req.Prompt == "Build an NFT marketplace" {
				return models.ProviderResponse{}, errors.New("invalid request: max_tokens")
			}
			return reply(providers.Anthropic, req.Model, "done"), nil
		}).Times(3)

	reg := providers.NewRegistry(nil, p)
	metrics := NewMetrics()
	r, log := newTestRunner(reg, WithMetrics(metrics))

	responses, err := r.Collect(context.Background(), Options{Prompts: samplePrompts(), Models: sampleModels()[:1]})
	require.NoError(t, err)
	assert.Len(t, responses, 2)
	assert.Equal(t, 1, log.count(EventCallFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.providerCalls.WithLabelValues(providers.Anthropic, OutcomeFailed)))
}

func TestRunner_RunAnalyzesInline(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mockProvider(ctrl, providers.OpenAI)
	p.EXPECT().Send(gomock.Any(), gomock.Any()).Return(
		reply(providers.OpenAI, "gpt-5.2", "Add anchor_lang to Cargo.toml."), nil).Times(2)

	reg := providers.NewRegistry(nil, p)

	dir := t.TempDir()
	store, err := storage.Open(dir)
	require.NoError(t, err)
	metrics := NewMetrics()
	r, log := newTestRunner(reg, WithStore(store), WithMetrics(metrics))

	results, err := r.Run(context.Background(), Options{
		Prompts: samplePrompts()[:1],
		Models:  sampleModels()[2:3],
		Runs:    2,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, "Solana", res.Analysis.Detection.Network)
	}
	assert.NotEqual(t, results[0].RunID, "", "run id is set")
	assert.Equal(t, 2, log.count(EventRunStart))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.classifications.WithLabelValues(OutcomeOK)))

	saved, err := storage.LoadResults(dir)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mockProvider(ctrl, providers.Anthropic)
	ctx, cancel := context.WithCancel(context.Background())
	p.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ providers.Request) (models.ProviderResponse, error) {
			cancel()
			return models.ProviderResponse{}, ctx.Err()
		}).Times(1)

	reg := providers.NewRegistry(nil, p)
	r, _ := newTestRunner(reg)

	_, err := r.Collect(ctx, Options{Prompts: samplePrompts(), Models: sampleModels()[:1]})
	require.ErrorIs(t, err, context.Canceled)
}
