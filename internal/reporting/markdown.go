package reporting

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/chainbench/chainbench/internal/detection"
	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/statistics"
)

// Markdown renders the full report: network and behavior grids, default
// labels per model, ecosystem distribution overall and per category, model
// latencies and a per-provider breakdown.
func Markdown(g *grid.Grid, results []models.BenchmarkResult, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Chain Bias Benchmark Results\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", now.UTC().Format("2006-01-02T15:04:05.000Z"))
	fmt.Fprintf(&b, "Total results: %d\n\n", len(results))

	headers := make([]string, len(g.Models))
	for i, m := range g.Models {
		headers[i] = fmt.Sprintf("%s (%s)", m.DisplayName, m.Tier)
	}

	b.WriteString("## Results Grid\n\n")
	writeGrid(&b, g, headers, func(c grid.Cell) string {
		return fmt.Sprintf("**%s** (%d%%) %.1fs", detection.DisplayName(c.Network), c.Confidence, float64(c.LatencyMs)/1000)
	})

	b.WriteString("## Behavior Grid\n\n")
	writeGrid(&b, g, headers, func(c grid.Cell) string {
		return fmt.Sprintf("%s (score: %d)", c.Behavior, c.Completeness)
	})

	b.WriteString("## Default Chain Summary\n\n")
	b.WriteString("| Model | Tier | Default Chain | Times Chosen |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, d := range statistics.DefaultLabels(g, statistics.FieldNetwork) {
		if d.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | **%s** | %s |\n", d.DisplayName, d.Tier, detection.DisplayName(d.Label), d.TimesChosen)
	}
	b.WriteString("\n")

	b.WriteString("## Ecosystem Distribution\n\n")
	b.WriteString("| Ecosystem | Responses | Share |\n")
	b.WriteString("| --- | --- | --- |\n")
	dist := statistics.OverallDistribution(g, statistics.FieldEcosystem)
	for _, e := range dist.Sorted() {
		fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", e.Label, e.Count, share(e.Count, dist.Total()))
	}
	b.WriteString("\n")

	b.WriteString("## Ecosystem Choice by Category\n\n")
	for _, cat := range statistics.PerCategory(g, statistics.FieldEcosystem) {
		fmt.Fprintf(&b, "### %s\n\n", cat.Category)
		b.WriteString("| Model | Ecosystems |\n")
		b.WriteString("| --- | --- |\n")
		for _, m := range cat.Models {
			counts := formatTally(m.Counts)
			if counts == "" {
				counts = emptyCell
			}
			fmt.Fprintf(&b, "| %s | %s |\n", m.DisplayName, counts)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Latency by Model\n\n")
	b.WriteString("| Model | Avg Latency | Std Dev |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, l := range statistics.LatencyPerModel(g) {
		fmt.Fprintf(&b, "| %s | %d ms | %.0f ms |\n", l.DisplayName, l.MeanMs, l.StdDevMs)
	}
	b.WriteString("\n")

	b.WriteString("## Provider Comparison (Flagship vs Mid-tier)\n\n")
	var providers []string
	for _, m := range g.Models {
		if !slices.Contains(providers, m.Provider) {
			providers = append(providers, m.Provider)
		}
	}
	for _, p := range providers {
		fmt.Fprintf(&b, "### %s\n\n", p)
		for _, m := range g.Models {
			if m.Provider != p {
				continue
			}
			var networks []string
			for _, c := range g.ModelCells(m.ID, g.PromptIDs) {
				networks = append(networks, c.Network)
			}
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", m.DisplayName, m.Tier, strings.Join(networks, ", "))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeGrid(b *strings.Builder, g *grid.Grid, headers []string, render func(grid.Cell) string) {
	fmt.Fprintf(b, "| Prompt | %s |\n", strings.Join(headers, " | "))
	b.WriteString("| --- |")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	cells := make([]string, len(g.Models))
	for _, p := range g.PromptIDs {
		for i, m := range g.Models {
			c, ok := g.Cell(p, m.ID)
			if !ok {
				cells[i] = emptyCell
				continue
			}
			cells[i] = render(c)
		}
		fmt.Fprintf(b, "| %s | %s |\n", p, strings.Join(cells, " | "))
	}
	b.WriteString("\n")
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
