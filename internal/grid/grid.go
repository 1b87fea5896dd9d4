// Package grid aggregates benchmark results into a prompt × model table.
package grid

import (
	"github.com/chainbench/chainbench/internal/metrics"
	"github.com/chainbench/chainbench/internal/models"
)

const keySeparator = "::"

// Key identifies the cell of a prompt and model.
func Key(promptID, modelID string) string {
	return promptID + keySeparator + modelID
}

// Cell aggregates every run of one prompt on one model. Headline labels are
// pluralities with first-seen tie-break. Confidence and Strength come from
// the last run; they are not averaged because they do not add up across
// different evidence sets.
type Cell struct {
	Ecosystem       string          `json:"ecosystem"`
	Network         string          `json:"network"`
	Behavior        models.Behavior `json:"behavior"`
	Confidence      int             `json:"confidence"`
	Strength        models.Strength `json:"strength"`
	Completeness    int             `json:"completeness"`
	LatencyMs       int             `json:"latencyMs"`
	EcosystemCounts models.Tally    `json:"ecosystemCounts"`
	NetworkCounts   models.Tally    `json:"networkCounts"`
	BehaviorCounts  models.Tally    `json:"behaviorCounts"`
	RunCount        int             `json:"runCount"`
}

// Grid is built once from a fixed result set and never changes afterwards.
type Grid struct {
	PromptIDs        []string
	Models           []models.ModelConfig
	Cells            map[string]Cell
	PromptCategories map[string]string
	PromptTexts      map[string]string
}

// Build aggregates results. It does not modify results, and an empty input
// yields an empty grid. Callers must not append to results concurrently.
func Build(results []models.BenchmarkResult) *Grid {
	g := &Grid{
		PromptIDs:        []string{},
		Models:           []models.ModelConfig{},
		Cells:            make(map[string]Cell),
		PromptCategories: make(map[string]string),
		PromptTexts:      make(map[string]string),
	}

	seenPrompts := make(map[string]bool)
	modelIndex := make(map[string]int)
	var groupKeys []string
	groups := make(map[string][]int)

	for i, r := range results {
		if !seenPrompts[r.PromptID] {
			seenPrompts[r.PromptID] = true
			g.PromptIDs = append(g.PromptIDs, r.PromptID)
		}
		if idx, ok := modelIndex[r.Model.ID]; ok {
			g.Models[idx] = r.Model
		} else {
			modelIndex[r.Model.ID] = len(g.Models)
			g.Models = append(g.Models, r.Model)
		}
		if _, ok := g.PromptCategories[r.PromptID]; !ok && r.PromptCategory != "" {
			g.PromptCategories[r.PromptID] = r.PromptCategory
		}
		if _, ok := g.PromptTexts[r.PromptID]; !ok && r.PromptText != "" {
			g.PromptTexts[r.PromptID] = r.PromptText
		}

		key := Key(r.PromptID, r.Model.ID)
		if _, ok := groups[key]; !ok {
			groupKeys = append(groupKeys, key)
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range groupKeys {
		g.Cells[key] = aggregate(results, groups[key])
	}
	return g
}

func aggregate(results []models.BenchmarkResult, idx []int) Cell {
	var c Cell
	completeness := make([]int, 0, len(idx))
	latency := make([]int, 0, len(idx))
	for _, i := range idx {
		a := results[i].Analysis
		c.EcosystemCounts.Inc(a.Detection.Ecosystem)
		c.NetworkCounts.Inc(a.Detection.Network)
		c.BehaviorCounts.Inc(string(a.Behavior.Behavior))
		completeness = append(completeness, a.Completeness.Score)
		latency = append(latency, results[i].Response.LatencyMs)
	}

	last := results[idx[len(idx)-1]].Analysis.Detection
	behavior, _ := c.BehaviorCounts.Top()

	c.Ecosystem, _ = c.EcosystemCounts.Top()
	c.Network, _ = c.NetworkCounts.Top()
	c.Behavior = models.Behavior(behavior)
	c.Confidence = last.Confidence
	c.Strength = last.Strength
	c.Completeness = metrics.RoundedMean(completeness)
	c.LatencyMs = metrics.RoundedMean(latency)
	c.RunCount = len(idx)
	return c
}

// Cell looks up the cell of a prompt and model.
func (g *Grid) Cell(promptID, modelID string) (Cell, bool) {
	c, ok := g.Cells[Key(promptID, modelID)]
	return c, ok
}

// Keys returns the cell keys in prompt-major order.
func (g *Grid) Keys() []string {
	var keys []string
	for _, p := range g.PromptIDs {
		for _, m := range g.Models {
			if key := Key(p, m.ID); g.hasCell(key) {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

func (g *Grid) hasCell(key string) bool {
	_, ok := g.Cells[key]
	return ok
}

// ModelCells returns a model's cells in prompt order, skipping prompts the
// model never answered.
func (g *Grid) ModelCells(modelID string, promptIDs []string) []Cell {
	var cells []Cell
	for _, p := range promptIDs {
		if c, ok := g.Cell(p, modelID); ok {
			cells = append(cells, c)
		}
	}
	return cells
}

// Category returns the prompt's category, or "Unknown".
func (g *Grid) Category(promptID string) string {
	if c, ok := g.PromptCategories[promptID]; ok {
		return c
	}
	return "Unknown"
}

// Empty reports whether the grid holds no cells.
func (g *Grid) Empty() bool {
	return len(g.Cells) == 0
}
