// Package reporting renders grids and result sets for people: a console
// table, and Markdown, HTML and CSV reports saved next to the results.
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/chainbench/chainbench/internal/grid"
	"github.com/chainbench/chainbench/internal/models"
	"github.com/chainbench/chainbench/internal/statistics"
)

const (
	promptColWidth  = 18
	maxCellWidth    = 22
	minCellWidth    = 12
	columnSeparator = " | "
	emptyCell       = "—"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Console prints grids as fixed-width tables.
type Console struct {
	w     io.Writer
	width int
	color bool
}

// NewConsole writes to w. Styling and width fitting apply only when w is a
// terminal.
func NewConsole(w io.Writer) *Console {
	c := &Console{w: w}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.color = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			c.width = width
		}
	}
	return c
}

func (c *Console) style(s lipgloss.Style, text string) string {
	if !c.color {
		return text
	}
	return s.Render(text)
}

// cellWidth shrinks columns to fit the terminal, within bounds.
func (c *Console) cellWidth(n int) int {
	if c.width == 0 || n == 0 {
		return maxCellWidth
	}
	avail := (c.width-promptColWidth)/n - len(columnSeparator)
	return max(minCellWidth, min(maxCellWidth, avail))
}

// PrintGrid prints the network table, each model's default network and a
// behavior summary.
func (c *Console) PrintGrid(g *grid.Grid) {
	if g.Empty() {
		fmt.Fprintln(c.w, c.style(dimStyle, "No results to show.")) //nolint:errcheck
		return
	}
	cw := c.cellWidth(len(g.Models))

	cols := make([]string, len(g.Models))
	for i, m := range g.Models {
		cols[i] = pad(m.DisplayName, cw)
	}
	header := pad("Prompt", promptColWidth) + columnSeparator + strings.Join(cols, columnSeparator)
	separator := strings.Repeat("-", runewidth.StringWidth(header))

	fmt.Fprintln(c.w)                                                        //nolint:errcheck
	fmt.Fprintln(c.w, separator)                                             //nolint:errcheck
	fmt.Fprintln(c.w, c.style(titleStyle, "  CHAIN BIAS BENCHMARK RESULTS")) //nolint:errcheck
	fmt.Fprintln(c.w, separator)                                             //nolint:errcheck
	fmt.Fprintln(c.w, c.style(headerStyle, header))                          //nolint:errcheck
	fmt.Fprintln(c.w, separator)                                             //nolint:errcheck

	for _, p := range g.PromptIDs {
		for i, m := range g.Models {
			cell, ok := g.Cell(p, m.ID)
			if !ok {
				cols[i] = c.style(dimStyle, pad(emptyCell, cw))
				continue
			}
			cols[i] = pad(consoleCell(cell), cw)
		}
		fmt.Fprintln(c.w, pad(p, promptColWidth)+columnSeparator+strings.Join(cols, columnSeparator)) //nolint:errcheck
	}
	fmt.Fprintln(c.w, separator) //nolint:errcheck

	for i, d := range statistics.DefaultLabels(g, statistics.FieldNetwork) {
		if d.Count == 0 {
			cols[i] = pad(emptyCell, cw)
			continue
		}
		cols[i] = pad(fmt.Sprintf("%s (%s)", d.Label, d.TimesChosen), cw)
	}
	row := pad("DEFAULT CHAIN", promptColWidth) + columnSeparator + strings.Join(cols, columnSeparator)
	fmt.Fprintln(c.w, c.style(summaryStyle, row)) //nolint:errcheck
	fmt.Fprintln(c.w, separator)                  //nolint:errcheck

	fmt.Fprintln(c.w, "\nBehavior Summary:") //nolint:errcheck
	for _, m := range g.Models {
		fmt.Fprintf(c.w, "  %s: %s\n", m.DisplayName, formatTally(behaviorCounts(g, m))) //nolint:errcheck
	}
	fmt.Fprintln(c.w) //nolint:errcheck
}

// PrintComparison prints a comparison table, largest shift first.
func (c *Console) PrintComparison(title string, rows []statistics.ComparisonRow) {
	fmt.Fprintln(c.w, c.style(titleStyle, title)) //nolint:errcheck
	header := fmt.Sprintf("%s %8s %8s %10s", pad("Label", 28), "Base", "Alt", "Δ pp")
	fmt.Fprintln(c.w, c.style(headerStyle, header)) //nolint:errcheck
	for _, r := range rows {
		fmt.Fprintf(c.w, "%s %7.1f%% %7.1f%% %+10.1f\n", pad(r.Label, 28), r.BasePct, r.AltPct, r.DeltaPp) //nolint:errcheck
	}
	fmt.Fprintln(c.w) //nolint:errcheck
}

func consoleCell(cell grid.Cell) string {
	network := runewidth.Truncate(cell.Network, 10, "")
	return fmt.Sprintf("%s %d%% %.1fs", network, cell.Confidence, float64(cell.LatencyMs)/1000)
}

// behaviorCounts tallies a model's cell behaviors in prompt order.
func behaviorCounts(g *grid.Grid, m models.ModelConfig) models.Tally {
	var t models.Tally
	for _, cell := range g.ModelCells(m.ID, g.PromptIDs) {
		t.Inc(string(cell.Behavior))
	}
	return t
}

func formatTally(t models.Tally) string {
	parts := make([]string, 0, t.Len())
	for _, e := range t.Entries() {
		parts = append(parts, fmt.Sprintf("%s: %d", e.Label, e.Count))
	}
	return strings.Join(parts, ", ")
}

// pad truncates or pads s to exactly width display columns.
func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, ""), width)
}
