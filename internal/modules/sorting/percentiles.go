package sorting

import (
	"fmt"
	"math"
	"sort"
)

// PercentileSpec lists the percentile cut points, in [0,100], used to split a
// characteristic. 0 and 100 are implicit outer bounds: [30, 70] denotes the
// three buckets [p0,p30], [p30,p70], [p70,p100].
type PercentileSpec []float64

// DefaultSpec returns quintile cut points, [0 20 40 60 80 100].
func DefaultSpec() PercentileSpec {
	return PercentileSpec{0, 20, 40, 60, 80, 100}
}

// EvenlySpaced returns cuts+2 evenly spaced percentiles from 0 to 100,
// truncated to integers. EvenlySpaced(4) is the quintile spec.
func EvenlySpaced(cuts int) (PercentileSpec, error) {
	if cuts < 0 {
		return nil, &InvalidSpecFormatError{Reason: fmt.Sprintf("number of cut points must be >= 0, got %d", cuts)}
	}

	points := cuts + 2
	spec := make(PercentileSpec, points)
	step := 100 / float64(points-1)
	for i := range spec {
		spec[i] = math.Trunc(float64(i) * step)
	}
	spec[points-1] = 100
	return spec, nil
}

// Normalize returns s sorted ascending with exactly one 0 and one 100
// at the ends. The receiver is not modified.
func (s PercentileSpec) Normalize() (PercentileSpec, error) {
	return s.normalize("")
}

// Buckets returns the number of buckets the normalized spec produces.
func (s PercentileSpec) Buckets() (int, error) {
	n, err := s.Normalize()
	if err != nil {
		return 0, err
	}
	return len(n) - 1, nil
}

func (s PercentileSpec) normalize(characteristic string) (PercentileSpec, error) {
	inner := make([]float64, 0, len(s))
	for _, p := range s {
		if math.IsNaN(p) {
			return nil, &InvalidSpecFormatError{Characteristic: characteristic, Reason: "percentile is NaN"}
		}
		if p < 0 || p > 100 {
			return nil, &InvalidPercentileError{Characteristic: characteristic, Value: p}
		}
		// outer bounds are re-added below
		if p == 0 || p == 100 {
			continue
		}
		inner = append(inner, p)
	}

	sort.Float64s(inner)
	for i := 1; i < len(inner); i++ {
		if inner[i] == inner[i-1] {
			return nil, &InvalidSpecFormatError{
				Characteristic: characteristic,
				Reason:         fmt.Sprintf("duplicate percentile %g", inner[i]),
			}
		}
	}

	out := make(PercentileSpec, 0, len(inner)+2)
	out = append(out, 0)
	out = append(out, inner...)
	out = append(out, 100)
	return out, nil
}
