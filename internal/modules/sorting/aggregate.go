package sorting

import (
	"fmt"
	"math"

	"github.com/aristath/portsort/pkg/formulas"
)

// Averages is the outcome of AveragePerPortfolio, ordered like the label
// table columns (lowest to highest bucket, last dimension fastest).
type Averages struct {
	Values     []float64 `json:"values" msgpack:"values"`
	Counts     []int     `json:"counts" msgpack:"counts"`
	WeightSums []float64 `json:"weight_sums,omitempty" msgpack:"weight_sums,omitempty"`
	Cells      [][]int   `json:"cells" msgpack:"cells"`
	// HML is Values[last] - Values[0].
	HML      float64 `json:"hml" msgpack:"hml"`
	Weighted bool    `json:"weighted" msgpack:"weighted"`
}

// AveragePerPortfolio averages outcome over the rows of every label column
// whose label equals the column's 1-based position. With weight nil the
// average is equal-weighted, otherwise sum(w*y)/sum(w) over the members.
// A portfolio without members, or whose weights sum to zero or less, yields an
// *EmptyPortfolioError. None of the inputs are modified.
func AveragePerPortfolio(labels *LabelTable, outcome, weight []float64) (*Averages, error) {
	if labels == nil || labels.Cols() == 0 {
		return nil, &InvalidSpecFormatError{Reason: "label table has no columns"}
	}
	n := labels.Rows()
	if len(outcome) != n {
		return nil, fmt.Errorf("%w: outcome has %d rows, labels have %d", ErrLengthMismatch, len(outcome), n)
	}
	if weight != nil && len(weight) != n {
		return nil, fmt.Errorf("%w: weight has %d rows, labels have %d", ErrLengthMismatch, len(weight), n)
	}

	p := labels.Cols()
	res := &Averages{
		Values:   make([]float64, p),
		Counts:   make([]int, p),
		Cells:    labels.Cells(),
		Weighted: weight != nil,
	}
	if weight != nil {
		res.WeightSums = make([]float64, p)
	}

	ys := make([]float64, 0, n)
	var ws []float64
	if weight != nil {
		ws = make([]float64, 0, n)
	}

	for j := 0; j < p; j++ {
		label := j + 1
		ys = ys[:0]
		if ws != nil {
			ws = ws[:0]
		}

		for r, v := range labels.Column(j) {
			if v != label {
				continue
			}
			if math.IsNaN(outcome[r]) || math.IsInf(outcome[r], 0) {
				return nil, fmt.Errorf("%w: outcome at row %d in portfolio %d", ErrNonFiniteValue, r+1, label)
			}
			ys = append(ys, outcome[r])
			if ws != nil {
				if math.IsNaN(weight[r]) || math.IsInf(weight[r], 0) {
					return nil, fmt.Errorf("%w: weight at row %d in portfolio %d", ErrNonFiniteValue, r+1, label)
				}
				ws = append(ws, weight[r])
			}
		}

		if len(ys) == 0 {
			return nil, &EmptyPortfolioError{Portfolio: label, Cell: labels.Cell(j), Dimensions: labels.Dimensions(), Reason: "no observations"}
		}
		res.Counts[j] = len(ys)

		if ws == nil {
			res.Values[j] = formulas.Mean(ys)
			continue
		}
		total := formulas.Sum(ws)
		if total <= 0 {
			return nil, &EmptyPortfolioError{Portfolio: label, Cell: labels.Cell(j), Dimensions: labels.Dimensions(), Reason: "weights sum to a non-positive value"}
		}
		res.WeightSums[j] = total
		res.Values[j] = formulas.WeightedMean(ys, ws)
	}

	res.HML = HighMinusLow(res.Values)
	return res, nil
}

// HighMinusLow returns the last minus the first average, 0 for fewer than two.
func HighMinusLow(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return values[len(values)-1] - values[0]
}
