package statistics

import (
	"math"
	"math/rand"
	"sort"

	"github.com/chainbench/chainbench/internal/models"
)

// ConfidenceInterval holds the result of a bootstrap confidence interval computation.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidenceLevel"`
	NumBootstraps   int     `json:"numBootstraps"`
}

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 10000

// BootstrapCI computes a bootstrap confidence interval over the given scores
// using the percentile method. confidenceLevel should be in (0, 1), e.g. 0.95.
// Returns a degenerate interval at the mean when fewer than 2 data points exist.
// A negative seed uses a non-deterministic source.
func BootstrapCI(scores []float64, confidenceLevel float64, seed int64) ConfidenceInterval {
	n := len(scores)
	m := mean(scores)
	if n < 2 {
		return ConfidenceInterval{Lower: m, Upper: m, Mean: m, ConfidenceLevel: confidenceLevel}
	}

	rng := newRand(seed)
	boot := make([]float64, DefaultBootstrapIterations)
	sample := make([]float64, n)
	for i := range boot {
		resample(rng, scores, sample)
		boot[i] = mean(sample)
	}
	return percentileInterval(boot, m, confidenceLevel)
}

// BootstrapDeltaWithSeed bootstraps the difference of means alt - base,
// resampling both sets independently.
func BootstrapDeltaWithSeed(base, alt []float64, confidenceLevel float64, seed int64) ConfidenceInterval {
	d := mean(alt) - mean(base)
	if len(base) < 2 || len(alt) < 2 {
		return ConfidenceInterval{Lower: d, Upper: d, Mean: d, ConfidenceLevel: confidenceLevel}
	}

	rng := newRand(seed)
	boot := make([]float64, DefaultBootstrapIterations)
	bs := make([]float64, len(base))
	as := make([]float64, len(alt))
	for i := range boot {
		resample(rng, base, bs)
		resample(rng, alt, as)
		boot[i] = mean(as) - mean(bs)
	}
	return percentileInterval(boot, d, confidenceLevel)
}

// LabelDeltaCI bootstraps the percentage-point shift of one label's share
// between two distributions.
func LabelDeltaCI(base, alt models.Tally, label string, confidenceLevel float64, seed int64) ConfidenceInterval {
	ci := BootstrapDeltaWithSeed(indicators(base, label), indicators(alt, label), confidenceLevel, seed)
	ci.Lower *= 100
	ci.Upper *= 100
	ci.Mean *= 100
	return ci
}

// indicators expands a distribution into one 0/1 observation per count.
func indicators(t models.Tally, label string) []float64 {
	out := make([]float64, 0, t.Total())
	for _, e := range t.Entries() {
		v := 0.0
		if e.Label == label {
			v = 1
		}
		for range e.Count {
			out = append(out, v)
		}
	}
	return out
}

// IsSignificant returns true if the confidence interval does not contain zero,
// indicating statistical significance at the given confidence level.
func IsSignificant(ci ConfidenceInterval) bool {
	return ci.Lower > 0 || ci.Upper < 0
}

func newRand(seed int64) *rand.Rand {
	if seed >= 0 {
		return rand.New(rand.NewSource(seed))
	}
	return rand.New(rand.NewSource(rand.Int63()))
}

func resample(rng *rand.Rand, from, into []float64) {
	for j := range into {
		into[j] = from[rng.Intn(len(from))]
	}
}

func percentileInterval(boot []float64, m, confidenceLevel float64) ConfidenceInterval {
	sort.Float64s(boot)
	iters := len(boot)

	alpha := 1.0 - confidenceLevel
	loIdx := int(math.Floor(alpha / 2.0 * float64(iters)))
	hiIdx := int(math.Floor((1.0 - alpha/2.0) * float64(iters)))
	if hiIdx >= iters {
		hiIdx = iters - 1
	}

	return ConfidenceInterval{
		Lower:           boot[loIdx],
		Upper:           boot[hiIdx],
		Mean:            m,
		ConfidenceLevel: confidenceLevel,
		NumBootstraps:   iters,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
