// Package export writes the dashboard payload: one file per export, a
// latest.json copy and a runs.json index of every export.
package export

import (
	"regexp"
	"strings"
	"time"

	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/statistics"
)

// Meta describes one export.
type Meta struct {
	Timestamp   string `json:"timestamp"`
	RunID       string `json:"runId"`
	ModelCount  int    `json:"modelCount"`
	PromptCount int    `json:"promptCount"`
	ResultCount int    `json:"resultCount"`
	WebSearch   bool   `json:"webSearch"`
}

// SlimResult is a result without the response text.
type SlimResult struct {
	PromptID         string          `json:"promptId"`
	PromptCategory   string          `json:"promptCategory"`
	Model            string          `json:"model"`
	ModelDisplayName string          `json:"modelDisplayName"`
	ModelTier        models.Tier     `json:"modelTier"`
	Ecosystem        string          `json:"ecosystem"`
	Network          string          `json:"network"`
	Strength         models.Strength `json:"strength"`
	Confidence       int             `json:"confidence"`
	Behavior         models.Behavior `json:"behavior"`
	Completeness     int             `json:"completeness"`
	LatencyMs        int             `json:"latencyMs"`
	TokensUsed       int             `json:"tokensUsed"`
	Evidence         []string        `json:"evidence"`
	WebSearch        bool            `json:"webSearch"`
}

// Cell is the serialized form of a grid cell.
type Cell struct {
	Ecosystem       string          `json:"ecosystem"`
	Network         string          `json:"network"`
	Strength        models.Strength `json:"strength"`
	Confidence      int             `json:"confidence"`
	Behavior        models.Behavior `json:"behavior"`
	Completeness    int             `json:"completeness"`
	LatencyMs       int             `json:"latencyMs"`
	EcosystemCounts models.Tally    `json:"ecosystemCounts"`
	NetworkCounts   models.Tally    `json:"networkCounts"`
	RunCount        int             `json:"runCount"`
}

// Model is a grid column.
type Model struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"displayName"`
	Tier        models.Tier `json:"tier"`
	Provider    string      `json:"provider"`
}

// Grid is the serialized grid.
type Grid struct {
	PromptIDs []string        `json:"promptIds"`
	Models    []Model         `json:"models"`
	Cells     map[string]Cell `json:"cells"`
}

// Prompt is one grid row.
type Prompt struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

// RunData is the dashboard payload.
type RunData struct {
	Meta    Meta         `json:"meta"`
	Results []SlimResult `json:"results"`
	Grid    Grid         `json:"grid"`
	Prompts []Prompt     `json:"prompts"`
}

// IndexEntry is one line of runs.json.
type IndexEntry struct {
	Timestamp   string `json:"timestamp"`
	RunID       string `json:"runId"`
	Filename    string `json:"filename"`
	ModelCount  int    `json:"modelCount"`
	PromptCount int    `json:"promptCount"`
	ResultCount int    `json:"resultCount"`
	WebSearch   bool   `json:"webSearch"`
}

var fractionalSeconds = regexp.MustCompile(`\.\d+Z$`)

// ISOTimestamp formats t in UTC with milliseconds.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// SafeTimestamp turns an ISO timestamp into a file-name fragment.
func SafeTimestamp(iso string) string {
	return fractionalSeconds.ReplaceAllString(strings.ReplaceAll(iso, ":", "-"), "")
}

// BuildRunData assembles the payload. The run ID is the first result's,
// falling back to the export timestamp.
func BuildRunData(results []models.BenchmarkResult, g *grid.Grid, now time.Time) RunData {
	ts := ISOTimestamp(now)
	runID := SafeTimestamp(ts)
	if len(results) > 0 && results[0].RunID != "" {
		runID = results[0].RunID
	}

	slim := make([]SlimResult, 0, len(results))
	for _, r := range results {
		slim = append(slim, slimResult(r))
	}

	prompts := make([]Prompt, 0, len(g.PromptIDs))
	for _, id := range g.PromptIDs {
		prompts = append(prompts, Prompt{ID: id, Category: g.Category(id), Text: g.PromptTexts[id]})
	}

	return RunData{
		Meta: Meta{
			Timestamp:   ts,
			RunID:       runID,
			ModelCount:  len(g.Models),
			PromptCount: len(g.PromptIDs),
			ResultCount: len(results),
			WebSearch:   anyWebSearch(results),
		},
		Results: slim,
		Grid:    serializeGrid(g),
		Prompts: prompts,
	}
}

func anyWebSearch(results []models.BenchmarkResult) bool {
	for _, r := range results {
		if r.WebSearch {
			return true
		}
	}
	return false
}

func slimResult(r models.BenchmarkResult) SlimResult {
	d := r.Analysis.Detection
	return SlimResult{
		PromptID:         r.PromptID,
		PromptCategory:   r.PromptCategory,
		Model:            r.Model.ID,
		ModelDisplayName: r.Model.DisplayName,
		ModelTier:        r.Model.Tier,
		Ecosystem:        d.Ecosystem,
		Network:          d.Network,
		Strength:         d.Strength,
		Confidence:       d.Confidence,
		Behavior:         r.Analysis.Behavior.Behavior,
		Completeness:     r.Analysis.Completeness.Score,
		LatencyMs:        r.Response.LatencyMs,
		TokensUsed:       r.Response.TokensUsed,
		Evidence:         d.EvidenceStrings(),
		WebSearch:        r.WebSearch,
	}
}

func serializeGrid(g *grid.Grid) Grid {
	out := Grid{
		PromptIDs: g.PromptIDs,
		Models:    make([]Model, 0, len(g.Models)),
		Cells:     make(map[string]Cell, len(g.Cells)),
	}
	for _, m := range g.Models {
		out.Models = append(out.Models, Model{ID: m.ID, DisplayName: m.DisplayName, Tier: m.Tier, Provider: m.Provider})
	}
	for key, c := range g.Cells {
		out.Cells[key] = Cell{
			Ecosystem:       c.Ecosystem,
			Network:         c.Network,
			Strength:        c.Strength,
			Confidence:      c.Confidence,
			Behavior:        c.Behavior,
			Completeness:    c.Completeness,
			LatencyMs:       c.LatencyMs,
			EcosystemCounts: c.EcosystemCounts,
			NetworkCounts:   c.NetworkCounts,
			RunCount:        c.RunCount,
		}
	}
	return out
}

// Distribution counts one label field over the exported results.
func (d RunData) Distribution(field statistics.Field) models.Tally {
	var out models.Tally
	for _, r := range d.Results {
		var label string
		switch field {
		case statistics.FieldNetwork:
			label = r.Network
		case statistics.FieldBehavior:
			label = string(r.Behavior)
		default:
			label = r.Ecosystem
		}
		if label != "" && label != "N/A" {
			out.Inc(label)
		}
	}
	return out
}

// GridView rebuilds the in-memory grid from the exported one so the
// statistics reducers can run over a saved run. Behavior counts are not
// exported and are recounted from the results.
func (d RunData) GridView() *grid.Grid {
	g := &grid.Grid{
		PromptIDs:        append([]string{}, d.Grid.PromptIDs...),
		Models:           make([]models.ModelConfig, 0, len(d.Grid.Models)),
		Cells:            make(map[string]grid.Cell, len(d.Grid.Cells)),
		PromptCategories: make(map[string]string, len(d.Prompts)),
		PromptTexts:      make(map[string]string, len(d.Prompts)),
	}
	for _, m := range d.Grid.Models {
		g.Models = append(g.Models, models.ModelConfig{ID: m.ID, Provider: m.Provider, Tier: m.Tier, DisplayName: m.DisplayName})
	}
	for _, p := range d.Prompts {
		g.PromptCategories[p.ID] = p.Category
		g.PromptTexts[p.ID] = p.Text
	}
	for key, c := range d.Grid.Cells {
		g.Cells[key] = grid.Cell{
			Ecosystem:       c.Ecosystem,
			Network:         c.Network,
			Behavior:        c.Behavior,
			Confidence:      c.Confidence,
			Strength:        c.Strength,
			Completeness:    c.Completeness,
			LatencyMs:       c.LatencyMs,
			EcosystemCounts: c.EcosystemCounts.Clone(),
			NetworkCounts:   c.NetworkCounts.Clone(),
			RunCount:        c.RunCount,
		}
	}
	for _, r := range d.Results {
		key := grid.Key(r.PromptID, r.Model)
		c, ok := g.Cells[key]
		if !ok || r.Behavior == "" {
			continue
		}
		c.BehaviorCounts.Inc(string(r.Behavior))
		g.Cells[key] = c
	}
	return g
}
