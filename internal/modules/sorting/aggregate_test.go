package sorting

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAveragePerPortfolio_EqualAndValueWeighted(t *testing.T) {
	labels, err := NewLabelTable([][]int{{1, 1, 1}})
	require.NoError(t, err)
	outcome := []float64{2, 4, 6}

	ew, err := AveragePerPortfolio(labels, outcome, nil)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, ew.Values[0], 1e-12)
	assert.Equal(t, []int{3}, ew.Counts)
	assert.False(t, ew.Weighted)
	assert.Nil(t, ew.WeightSums)

	vw, err := AveragePerPortfolio(labels, outcome, []float64{1, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, vw.Values[0], 1e-12)
	assert.Equal(t, []float64{4}, vw.WeightSums)
	assert.True(t, vw.Weighted)
}

func TestAveragePerPortfolio_HML(t *testing.T) {
	labels, err := NewLabelTable([][]int{
		{1, 0, 0},
		{0, 2, 0},
		{0, 0, 3},
	})
	require.NoError(t, err)

	res, err := AveragePerPortfolio(labels, []float64{0.01, 0.03, 0.05}, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.01, 0.03, 0.05}, res.Values, 1e-12)
	assert.InDelta(t, 0.04, res.HML, 1e-12)
}

func TestAveragePerPortfolio_OnlyMatchingLabelSelected(t *testing.T) {
	// a label that does not match the column position is ignored
	labels, err := NewLabelTable([][]int{
		{1, 2, 1},
		{2, 0, 2},
	})
	require.NoError(t, err)

	res, err := AveragePerPortfolio(labels, []float64{10, 20, 30}, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{20, 20}, res.Values, 1e-12)
	assert.Equal(t, []int{2, 2}, res.Counts)
}

func TestAveragePerPortfolio_EmptyPortfolio(t *testing.T) {
	labels, err := NewLabelTable([][]int{{1, 1}, {0, 0}})
	require.NoError(t, err)

	_, err = AveragePerPortfolio(labels, []float64{1, 2}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyPortfolio))

	var epe *EmptyPortfolioError
	require.True(t, errors.As(err, &epe))
	assert.Equal(t, 2, epe.Portfolio)
	assert.Equal(t, []int{2}, epe.Cell)
	assert.Nil(t, epe.Dimensions)
	assert.Contains(t, epe.Error(), "(cell 2)")
}

func TestAveragePerPortfolio_ZeroWeights(t *testing.T) {
	labels, err := NewLabelTable([][]int{{1, 1}})
	require.NoError(t, err)

	_, err = AveragePerPortfolio(labels, []float64{1, 2}, []float64{0, 0})
	var epe *EmptyPortfolioError
	require.True(t, errors.As(err, &epe))
	assert.Contains(t, epe.Error(), "weights sum to a non-positive value")
}

func TestAveragePerPortfolio_NegativeWeightSum(t *testing.T) {
	labels, err := NewLabelTable([][]int{{1, 1}})
	require.NoError(t, err)

	_, err = AveragePerPortfolio(labels, []float64{1, 2}, []float64{3, -4})
	var epe *EmptyPortfolioError
	require.True(t, errors.As(err, &epe), "got %v", err)
	assert.Equal(t, 1, epe.Portfolio)
	assert.ErrorIs(t, err, ErrEmptyPortfolio)

	// negative weights are allowed while the sum stays positive
	avg, err := AveragePerPortfolio(labels, []float64{1, 2}, []float64{3, -1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, avg.Values[0], 1e-12)
}

func TestAveragePerPortfolio_InputValidation(t *testing.T) {
	labels, err := NewLabelTable([][]int{{1, 1}})
	require.NoError(t, err)

	_, err = AveragePerPortfolio(labels, []float64{1}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = AveragePerPortfolio(labels, []float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = AveragePerPortfolio(labels, []float64{1, math.NaN()}, nil)
	assert.ErrorIs(t, err, ErrNonFiniteValue)

	_, err = AveragePerPortfolio(nil, []float64{1}, nil)
	assert.ErrorIs(t, err, ErrInvalidSpecFormat)
}

func TestAveragePerPortfolio_DoesNotMutateInputs(t *testing.T) {
	labels, err := NewLabelTable([][]int{{1, 0, 1}, {0, 2, 0}})
	require.NoError(t, err)
	outcome := []float64{3, 1, 2}
	weight := []float64{1, 2, 3}

	_, err = AveragePerPortfolio(labels, outcome, weight)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 1, 2}, outcome)
	assert.Equal(t, []float64{1, 2, 3}, weight)
	assert.Equal(t, [][]int{{1, 0, 1}, {0, 2, 0}}, labels.Columns())
}

func TestHighMinusLow(t *testing.T) {
	assert.Equal(t, 0.0, HighMinusLow(nil))
	assert.Equal(t, 0.0, HighMinusLow([]float64{5}))
	assert.InDelta(t, -2.0, HighMinusLow([]float64{3, 4, 1}), 1e-12)
}
