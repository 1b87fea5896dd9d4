package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/statistics"
)

// Report file names written by Save.
const (
	MarkdownFile = "report.md"
	HTMLFile     = "report.html"
	CSVFile      = "report.csv"
)

var ecosystemColors = map[string]string{
	"Ethereum Ecosystem": "#627eea",
	"Solana":             "#9945ff",
	"Sui":                "#4da2ff",
	"Aptos":              "#2dd8a3",
	"Cosmos":             "#2e3148",
	"Near":               "#000000",
	"Polkadot":           "#e6007a",
	"BSC":                "#f0b90b",
	"Avalanche":          "#e84142",
	"TON":                "#0098ea",
	"Chain-Agnostic":     "#888888",
}

const fallbackColor = "#555555"

type bar struct {
	Label string
	Count int
	Pct   float64
	Color template.CSS
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Chain Bias Benchmark Results</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 1200px; color: #1f2328; }
table { border-collapse: collapse; margin: 1rem 0; font-size: 0.9rem; }
th, td { border: 1px solid #d0d7de; padding: 0.35rem 0.6rem; text-align: left; }
th { background: #f6f8fa; }
.bars { margin: 1rem 0 2rem; }
.bar { display: flex; align-items: center; margin: 0.2rem 0; }
.bar .label { width: 12rem; }
.bar .fill { height: 1.1rem; border-radius: 3px; }
.bar .value { margin-left: 0.5rem; color: #57606a; }
</style>
</head>
<body>
<h2>Ecosystem Share</h2>
<div class="bars">
{{- range .Bars}}
<div class="bar"><span class="label">{{.Label}}</span><span class="fill" style="width: {{printf "%.1f" .Pct}}%; background: {{.Color}}"></span><span class="value">{{.Count}} ({{printf "%.1f" .Pct}}%)</span></div>
{{- end}}
</div>
{{.Body}}
</body>
</html>
`))

// HTML renders the Markdown report as a standalone page with an ecosystem
// share chart on top.
func HTML(g *grid.Grid, results []models.BenchmarkResult, now time.Time) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(g, results, now)), &body); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	dist := statistics.OverallDistribution(g, statistics.FieldEcosystem)
	bars := make([]bar, 0, dist.Len())
	for _, e := range dist.Sorted() {
		color, ok := ecosystemColors[e.Label]
		if !ok {
			color = fallbackColor
		}
		bars = append(bars, bar{Label: e.Label, Count: e.Count, Pct: share(e.Count, dist.Total()), Color: template.CSS(color)})
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Bars []bar
		Body template.HTML
	}{bars, template.HTML(body.String())})
	if err != nil {
		return "", fmt.Errorf("rendering report page: %w", err)
	}
	return page.String(), nil
}

// Paths lists the files written by Save.
type Paths struct {
	Markdown string
	HTML     string
	CSV      string
}

// Save writes the Markdown, HTML and CSV reports into dir.
func Save(dir string, g *grid.Grid, results []models.BenchmarkResult, now time.Time) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("creating report directory: %w", err)
	}
	p := Paths{
		Markdown: filepath.Join(dir, MarkdownFile),
		HTML:     filepath.Join(dir, HTMLFile),
		CSV:      filepath.Join(dir, CSVFile),
	}

	if err := os.WriteFile(p.Markdown, []byte(Markdown(g, results, now)), 0o644); err != nil {
		return Paths{}, fmt.Errorf("writing markdown report: %w", err)
	}

	page, err := HTML(g, results, now)
	if err != nil {
		return Paths{}, err
	}
	if err := os.WriteFile(p.HTML, []byte(page), 0o644); err != nil {
		return Paths{}, fmt.Errorf("writing HTML report: %w", err)
	}

	f, err := os.Create(p.CSV)
	if err != nil {
		return Paths{}, fmt.Errorf("creating CSV report: %w", err)
	}
	defer f.Close() //nolint:errcheck
	if err := WriteCSV(f, results); err != nil {
		return Paths{}, err
	}
	return p, f.Close()
}
