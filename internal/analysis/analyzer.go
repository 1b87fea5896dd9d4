// Package analysis turns one model response into an AnalysisResult.
package analysis

import (
	"context"
	"fmt"

	"github.com/chainbench/chainbench/internal/detection"
	"github.com/chainbench/chainbench/internal/metrics"
	"github.com/chainbench/chainbench/internal/models"
)

// FailureEvidence is the evidence text of a failed classification.
const FailureEvidence = "Classification failed"

// Analyzer runs a Detector and the behavior and completeness heuristics over
// a response. Only the detector can fail.
type Analyzer struct {
	detector detection.Detector
}

// New returns an Analyzer using d, or the pattern detector when d is nil.
func New(d detection.Detector) *Analyzer {
	if d == nil {
		d = detection.NewPatternDetector(nil)
	}
	return &Analyzer{detector: d}
}

// Analyze classifies text, the response to promptText.
func (a *Analyzer) Analyze(ctx context.Context, text, promptText string) (models.AnalysisResult, error) {
	d, err := a.detector.Detect(ctx, text, promptText)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("detecting network: %w", err)
	}
	return models.AnalysisResult{
		Detection:    d,
		Behavior:     metrics.ClassifyBehavior(text),
		Completeness: metrics.ScoreCompleteness(text),
	}, nil
}

// AnalyzeResponse is the deterministic pattern-only analysis.
func AnalyzeResponse(text string) models.AnalysisResult {
	return models.AnalysisResult{
		Detection:    detection.Detect(text),
		Behavior:     metrics.ClassifyBehavior(text),
		Completeness: metrics.ScoreCompleteness(text),
	}
}

// FailedAnalysis is substituted for a response whose classification failed,
// so the raw response is kept and the batch can continue.
func FailedAnalysis() models.AnalysisResult {
	return models.AnalysisResult{
		Detection: models.Detection{
			Network:   detection.ChainAgnostic,
			Ecosystem: detection.ChainAgnostic,
			Strength:  models.StrengthImplicit,
			Evidence:  []models.Evidence{{Signal: FailureEvidence}},
			All:       models.NewTally(models.LabelCount{Label: detection.ChainAgnostic, Count: 1}),
		},
		Behavior: models.BehaviorClassification{
			Behavior:        models.BehaviorJustBuilt,
			DecisionsStated: []string{},
		},
	}
}

// IsFailed reports whether a is the failure sentinel.
func IsFailed(a models.AnalysisResult) bool {
	ev := a.Detection.Evidence
	return a.Detection.Network == detection.ChainAgnostic && len(ev) == 1 && ev[0].Signal == FailureEvidence
}
