package formulas

import (
	"math"
	"sort"
)

// Percentile evaluates the empirical percentile p (0..100) of values using
// linear interpolation between order statistics: position p/100*(n-1) in the
// sorted sample. Returns NaN for an empty sample. values is not modified.
func Percentile(values []float64, p float64) float64 {
	return Percentiles(values, []float64{p})[0]
}

// Percentiles evaluates several percentiles against a single sorted copy of values.
func Percentiles(values []float64, ps []float64) []float64 {
	out := make([]float64, len(ps))
	if len(values) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	for i, p := range ps {
		out[i] = percentileSorted(sorted, p)
	}
	return out
}

func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	pos := p / 100 * float64(n-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower < 0 {
		return sorted[0]
	}
	if upper >= n {
		return sorted[n-1]
	}
	if lower == upper {
		return sorted[lower]
	}

	// linear interpolation
	fraction := pos - float64(lower)
	return sorted[lower] + fraction*(sorted[upper]-sorted[lower])
}
