package statistics

import (
	"testing"

	"github.com/chainbench/chainbench/internal/models"
	"github.com/stretchr/testify/require"
)

func tally(entries ...any) models.Tally {
	var t models.Tally
	for i := 0; i < len(entries); i += 2 {
		t.Add(entries[i].(string), entries[i+1].(int))
	}
	return t
}

func TestCompare_PercentagePointDelta(t *testing.T) {
	base := tally("Ethereum Ecosystem", 10, "Solana", 10)
	alt := tally("Ethereum Ecosystem", 15, "Solana", 5)

	rows := Compare(base, alt)
	require.Len(t, rows, 2)

	eth := rows[0]
	require.Equal(t, "Ethereum Ecosystem", eth.Label)
	require.InDelta(t, 50, eth.BasePct, 1e-9)
	require.InDelta(t, 75, eth.AltPct, 1e-9)
	require.InDelta(t, 25, eth.DeltaPp, 1e-9)
	require.Equal(t, 10, eth.BaseCount)
	require.Equal(t, 15, eth.AltCount)
}

func TestCompare_DifferentTotalsUseShares(t *testing.T) {
	// Same share in both sets despite 10x the responses.
	rows := Compare(tally("Base", 2, "Solana", 2), tally("Base", 20, "Solana", 20))
	for _, r := range rows {
		require.InDelta(t, 0, r.DeltaPp, 1e-9, r.Label)
	}
}

func TestCompare_SortsByAbsoluteDelta(t *testing.T) {
	base := tally("Solana", 50, "Base", 30, "Sui", 20)
	alt := tally("Solana", 45, "Base", 55, "Aptos", 0)

	rows := Compare(base, alt)
	var labels []string
	for _, r := range rows {
		labels = append(labels, r.Label)
	}
	// Base +25, Sui -20, Solana -5, Aptos 0
	require.Equal(t, []string{"Base", "Sui", "Solana", "Aptos"}, labels)
}

func TestCompare_Symmetry(t *testing.T) {
	a := tally("Ethereum Ecosystem", 7, "Solana", 3, "Sui", 1)
	b := tally("Solana", 9, "Ethereum Ecosystem", 4, "TON", 2)

	ab := map[string]float64{}
	for _, r := range Compare(a, b) {
		ab[r.Label] = r.DeltaPp
	}
	ba := map[string]float64{}
	for _, r := range Compare(b, a) {
		ba[r.Label] = r.DeltaPp
	}
	require.Len(t, ab, 4)
	for label, d := range ab {
		require.Equal(t, -d, ba[label], label)
	}
}

func TestCompare_EmptySide(t *testing.T) {
	rows := Compare(models.Tally{}, tally("Base", 4))
	require.Len(t, rows, 1)
	require.Zero(t, rows[0].BasePct)
	require.InDelta(t, 100, rows[0].AltPct, 1e-9)
	require.InDelta(t, 100, rows[0].DeltaPp, 1e-9)
}

func TestCompareWithCI(t *testing.T) {
	base := tally("Solana", 40, "Base", 10)
	alt := tally("Solana", 10, "Base", 40)

	shifts := CompareWithCI(base, alt, 0.95, 42)
	require.Len(t, shifts, 2)
	for _, s := range shifts {
		require.True(t, s.Significant, "%s: %+v", s.Label, s.CI)
		require.InDelta(t, s.DeltaPp, s.CI.Mean, 1e-9)
	}

	same := CompareWithCI(base, base.Clone(), 0.95, 42)
	for _, s := range same {
		require.False(t, s.Significant)
		require.Zero(t, s.DeltaPp)
	}
}
