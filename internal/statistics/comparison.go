package statistics

import (
	"math"
	"sort"

	"github.com/chainbench/chainbench/internal/metrics"
	"github.com/chainbench/chainbench/internal/models"
)

// ComparisonRow is one label's share in a base and an alternate run mode.
// DeltaPp is a percentage-point difference, so sets of different sizes
// compare fairly.
type ComparisonRow struct {
	Label     string  `json:"label"`
	BaseCount int     `json:"baseCount"`
	AltCount  int     `json:"altCount"`
	BasePct   float64 `json:"basePct"`
	AltPct    float64 `json:"altPct"`
	DeltaPp   float64 `json:"deltaPp"`
}

// Compare computes per-label shares of both distributions, biggest shift
// first. Equal shifts keep base order, then alternate-only labels.
func Compare(base, alt models.Tally) []ComparisonRow {
	baseTotal, altTotal := base.Total(), alt.Total()

	labels := base.Labels()
	for _, l := range alt.Labels() {
		if !base.Has(l) {
			labels = append(labels, l)
		}
	}

	rows := make([]ComparisonRow, 0, len(labels))
	for _, l := range labels {
		r := ComparisonRow{
			Label:     l,
			BaseCount: base.Get(l),
			AltCount:  alt.Get(l),
			BasePct:   metrics.Percent(base.Get(l), baseTotal),
			AltPct:    metrics.Percent(alt.Get(l), altTotal),
		}
		r.DeltaPp = r.AltPct - r.BasePct
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return math.Abs(rows[i].DeltaPp) > math.Abs(rows[j].DeltaPp)
	})
	return rows
}

// Shift is a comparison row with a bootstrap interval around its delta.
type Shift struct {
	ComparisonRow
	CI          ConfidenceInterval `json:"ci"`
	Significant bool               `json:"significant"`
}

// CompareWithCI compares two distributions and marks the label shifts whose
// interval excludes zero.
func CompareWithCI(base, alt models.Tally, confidenceLevel float64, seed int64) []Shift {
	rows := Compare(base, alt)
	out := make([]Shift, len(rows))
	for i, r := range rows {
		ci := LabelDeltaCI(base, alt, r.Label, confidenceLevel, seed)
		out[i] = Shift{ComparisonRow: r, CI: ci, Significant: IsSignificant(ci)}
	}
	return out
}
