package metrics

import "math"

// RoundedMean averages integer samples such as latencies, rounding half away
// from zero. Returns 0 for empty input.
func RoundedMean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	return int(math.Round(mean(values)))
}

// StdDev is the population standard deviation of integer samples.
func StdDev(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := float64(v) - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// Percent returns part/total*100, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
