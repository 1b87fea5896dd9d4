// Package statistics reduces grids and result sets to distributions,
// breakdowns and run-mode comparisons. Every function is pure.
package statistics

import (
	"fmt"

	"github.com/chainbench/chainbench/internal/detection"
	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/metrics"
	"github.com/chainbench/chainbench/internal/models"
)

// Field selects which label of a cell a reducer reads.
type Field string

const (
	FieldEcosystem Field = "ecosystem"
	FieldNetwork   Field = "network"
	FieldBehavior  Field = "behavior"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldEcosystem, FieldNetwork, FieldBehavior:
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q (want ecosystem, network or behavior)", s)
}

func (f Field) counts(c grid.Cell) models.Tally {
	switch f {
	case FieldNetwork:
		return c.NetworkCounts
	case FieldBehavior:
		return c.BehaviorCounts
	}
	return c.EcosystemCounts
}

func (f Field) headline(c grid.Cell) string {
	switch f {
	case FieldNetwork:
		return c.Network
	case FieldBehavior:
		return string(c.Behavior)
	}
	return c.Ecosystem
}

// placeholder labels come from records written before a field existed.
func placeholder(label string) bool {
	return label == "" || label == "N/A"
}

func addCounts(dst *models.Tally, src models.Tally) {
	for _, e := range src.Entries() {
		if !placeholder(e.Label) {
			dst.Add(e.Label, e.Count)
		}
	}
}

// OverallDistribution sums a count field across every cell.
func OverallDistribution(g *grid.Grid, field Field) models.Tally {
	var out models.Tally
	for _, key := range g.Keys() {
		addCounts(&out, field.counts(g.Cells[key]))
	}
	return out
}

// ToolDistribution counts each tool named in a result's evidence once per
// result.
func ToolDistribution(results []models.BenchmarkResult) models.Tally {
	var out models.Tally
	for _, r := range results {
		for _, tool := range detection.Tools(r.Analysis.Detection) {
			out.Inc(tool)
		}
	}
	return out
}

// ClassifiedToolDistribution counts tools from explicit tool classifications.
func ClassifiedToolDistribution(results []models.ToolResult) models.Tally {
	var out models.Tally
	for _, r := range results {
		seen := make(map[string]bool, len(r.ToolDetection.Tools))
		for _, tool := range r.ToolDetection.Tools {
			if !seen[tool] {
				seen[tool] = true
				out.Inc(tool)
			}
		}
	}
	return out
}

// ModelBreakdown is one model's share of a distribution.
type ModelBreakdown struct {
	ModelID     string       `json:"modelId"`
	DisplayName string       `json:"model"`
	Tier        models.Tier  `json:"tier"`
	Counts      models.Tally `json:"counts"`
}

// PerModel partitions a distribution by model, in grid model order.
func PerModel(g *grid.Grid, field Field) []ModelBreakdown {
	out := make([]ModelBreakdown, 0, len(g.Models))
	for _, m := range g.Models {
		b := breakdown(m)
		for _, c := range g.ModelCells(m.ID, g.PromptIDs) {
			addCounts(&b.Counts, field.counts(c))
		}
		out = append(out, b)
	}
	return out
}

func breakdown(m models.ModelConfig) ModelBreakdown {
	return ModelBreakdown{ModelID: m.ID, DisplayName: m.DisplayName, Tier: m.Tier}
}

// CategoryBreakdown is the per-model distribution within one category.
type CategoryBreakdown struct {
	Category string           `json:"category"`
	Models   []ModelBreakdown `json:"models"`
}

// PerCategory partitions each model's headline labels by prompt category.
// Each cell counts once. Legacy category names are folded first.
func PerCategory(g *grid.Grid, field Field) []CategoryBreakdown {
	var categories []string
	prompts := make(map[string][]string)
	for _, p := range g.PromptIDs {
		cat := CanonicalCategory(g.Category(p))
		if _, ok := prompts[cat]; !ok {
			categories = append(categories, cat)
		}
		prompts[cat] = append(prompts[cat], p)
	}

	out := make([]CategoryBreakdown, 0, len(categories))
	for _, cat := range categories {
		cb := CategoryBreakdown{Category: cat, Models: make([]ModelBreakdown, 0, len(g.Models))}
		for _, m := range g.Models {
			b := breakdown(m)
			for _, c := range g.ModelCells(m.ID, prompts[cat]) {
				if label := field.headline(c); !placeholder(label) {
					b.Counts.Inc(label)
				}
			}
			cb.Models = append(cb.Models, b)
		}
		out = append(out, cb)
	}
	return out
}

// DefaultLabel is what a model picks when nobody tells it which chain to use.
type DefaultLabel struct {
	ModelID     string      `json:"modelId"`
	DisplayName string      `json:"model"`
	Tier        models.Tier `json:"tier"`
	Label       string      `json:"defaultLabel"`
	Count       int         `json:"count"`
	Total       int         `json:"total"`
	TimesChosen string      `json:"timesChosen"`
}

// DefaultLabels returns each model's plurality headline label across prompts.
// Total is the number of prompts in the grid.
func DefaultLabels(g *grid.Grid, field Field) []DefaultLabel {
	out := make([]DefaultLabel, 0, len(g.Models))
	for _, m := range g.Models {
		var counts models.Tally
		for _, c := range g.ModelCells(m.ID, g.PromptIDs) {
			counts.Inc(field.headline(c))
		}
		label, n := counts.Top()
		if label == "" {
			label = detection.NetworkUnknown
		}
		out = append(out, DefaultLabel{
			ModelID:     m.ID,
			DisplayName: m.DisplayName,
			Tier:        m.Tier,
			Label:       label,
			Count:       n,
			Total:       len(g.PromptIDs),
			TimesChosen: fmt.Sprintf("%d/%d", n, len(g.PromptIDs)),
		})
	}
	return out
}

// ModelLatency summarizes cell latencies of one model.
type ModelLatency struct {
	ModelID     string  `json:"modelId"`
	DisplayName string  `json:"model"`
	MeanMs      int     `json:"avg"`
	StdDevMs    float64 `json:"stdDev"`
}

// LatencyPerModel averages each model's cell latencies.
func LatencyPerModel(g *grid.Grid) []ModelLatency {
	out := make([]ModelLatency, 0, len(g.Models))
	for _, m := range g.Models {
		var latencies []int
		for _, c := range g.ModelCells(m.ID, g.PromptIDs) {
			latencies = append(latencies, c.LatencyMs)
		}
		out = append(out, ModelLatency{
			ModelID:     m.ID,
			DisplayName: m.DisplayName,
			MeanMs:      metrics.RoundedMean(latencies),
			StdDevMs:    metrics.StdDev(latencies),
		})
	}
	return out
}

// ModelScore is a model's mean cell completeness with a bootstrap interval.
type ModelScore struct {
	ModelID     string             `json:"modelId"`
	DisplayName string             `json:"model"`
	Mean        float64            `json:"mean"`
	CI          ConfidenceInterval `json:"ci"`
}

// CompletenessPerModel averages each model's cell completeness scores.
func CompletenessPerModel(g *grid.Grid, confidenceLevel float64, seed int64) []ModelScore {
	out := make([]ModelScore, 0, len(g.Models))
	for _, m := range g.Models {
		var scores []float64
		for _, c := range g.ModelCells(m.ID, g.PromptIDs) {
			scores = append(scores, float64(c.Completeness))
		}
		ci := BootstrapCI(scores, confidenceLevel, seed)
		out = append(out, ModelScore{ModelID: m.ID, DisplayName: m.DisplayName, Mean: ci.Mean, CI: ci})
	}
	return out
}
