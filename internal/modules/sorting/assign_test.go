package sorting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/portsort/internal/sample"
)

func mustTable(t *testing.T, names []string, cols ...[]float64) *sample.Table {
	t.Helper()
	tbl, err := sample.NewTable(names, cols)
	require.NoError(t, err)
	return tbl
}

func mustMap(t *testing.T, tbl *sample.Table, specs ...CharacteristicSpec) *BreakpointMap {
	t.Helper()
	bps, err := Breakpoints(tbl, specs)
	require.NoError(t, err)
	return bps
}

func TestAssignUnivariate_Median(t *testing.T) {
	values := seq(1, 9)
	bp, err := ComputeBreakpoints("x", values, PercentileSpec{50})
	require.NoError(t, err)

	labels := AssignUnivariate(values, bp)
	// median is 5, which belongs to the lower bucket
	assert.Equal(t, []int{1, 1, 1, 1, 1, 2, 2, 2, 2}, labels)
}

func TestAssignUnivariate_OutOfRangeUnlabelled(t *testing.T) {
	bp := BreakpointSet{Characteristic: "x", Values: []float64{10, 20, 30}}
	labels := AssignUnivariate([]float64{5, 10, 25, 30, 31}, bp)
	assert.Equal(t, []int{0, 1, 2, 2, 0}, labels)
}

func TestFormPortfolios_UnivariateQuintiles(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, seq(1, 100))
	bps := mustMap(t, tbl, CharacteristicSpec{Name: "x", Percentiles: PercentileSpec{0, 20, 40, 60, 80, 100}})

	lt, err := FormPortfolios(tbl, bps)
	require.NoError(t, err)

	assert.Equal(t, 100, lt.Rows())
	assert.Equal(t, 5, lt.Cols())
	for j, c := range lt.Counts() {
		assert.InDelta(t, 20, c, 1, "portfolio %d", j+1)
	}

	// column j only ever holds 0 or j+1
	for j := 0; j < lt.Cols(); j++ {
		for _, v := range lt.Column(j) {
			assert.Contains(t, []int{0, j + 1}, v)
		}
	}
}

func TestFormPortfolios_MedianTieInBothColumns(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, seq(1, 9))
	bps := mustMap(t, tbl, CharacteristicSpec{Name: "x", Percentiles: PercentileSpec{50}})

	lt, err := FormPortfolios(tbl, bps)
	require.NoError(t, err)

	assert.Equal(t, []int{5, 5}, lt.Counts())
	assert.Equal(t, 1, lt.At(4, 0))
	assert.Equal(t, 2, lt.At(4, 1))

	// every other row is in exactly one bucket
	for r := 0; r < lt.Rows(); r++ {
		if r == 4 {
			continue
		}
		members := 0
		for j := 0; j < lt.Cols(); j++ {
			if lt.At(r, j) != 0 {
				members++
			}
		}
		assert.Equal(t, 1, members, "row %d", r)
	}
}

func bivariateGrid() ([]float64, []float64) {
	x := make([]float64, 900)
	y := make([]float64, 900)
	for i := range x {
		x[i] = float64(i % 30)
		y[i] = float64(i / 30)
	}
	return x, y
}

func TestFormPortfolios_BivariateTerciles(t *testing.T) {
	x, y := bivariateGrid()
	tbl := mustTable(t, []string{"x", "y"}, x, y)
	terciles := PercentileSpec{100.0 / 3, 200.0 / 3}
	bps := mustMap(t, tbl,
		CharacteristicSpec{Name: "x", Percentiles: terciles},
		CharacteristicSpec{Name: "y", Percentiles: terciles},
	)

	lt, err := FormPortfolios(tbl, bps)
	require.NoError(t, err)
	require.Equal(t, 9, lt.Cols())

	total := 0
	for j, c := range lt.Counts() {
		assert.NotZero(t, c, "cell %v is empty", lt.Cell(j))
		assert.InDelta(t, 100, c, 10, "cell %v", lt.Cell(j))
		total += c
	}
	assert.InDelta(t, 900, total, 18)
}

func TestFormPortfolios_CellOrderLastDimensionFastest(t *testing.T) {
	tbl := mustTable(t, []string{"a", "b"}, seq(1, 12), seq(1, 12))
	bps := mustMap(t, tbl,
		CharacteristicSpec{Name: "a", Percentiles: PercentileSpec{50}},
		CharacteristicSpec{Name: "b", Percentiles: PercentileSpec{30, 70}},
	)

	lt, err := FormPortfolios(tbl, bps)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, lt.Shape())
	assert.Equal(t, []string{"a", "b"}, lt.Dimensions())
	assert.Equal(t, [][]int{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 2}, {2, 3}}, lt.Cells())
}

func TestFormPortfolios_SimultaneousTiesCountMoreThanOnce(t *testing.T) {
	tbl := mustTable(t, []string{"x", "y"}, []float64{1, 2, 3}, []float64{1, 2, 3})
	median := PercentileSpec{50}
	bps := mustMap(t, tbl,
		CharacteristicSpec{Name: "x", Percentiles: median},
		CharacteristicSpec{Name: "y", Percentiles: median},
	)

	lt, err := FormPortfolios(tbl, bps)
	require.NoError(t, err)

	// row 1 sits on both medians and joins all four cells
	assert.Equal(t, []int{2, 1, 1, 2}, lt.Counts())
	for j := 0; j < lt.Cols(); j++ {
		assert.Equal(t, j+1, lt.At(1, j))
	}

	it, err := AssignIndices(tbl, bps)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 0, 1}, it.Labels().Counts())
}

func TestAssignIndices_CompositeMatchesGrid(t *testing.T) {
	x, y := bivariateGrid()
	z := make([]float64, len(x))
	for i := range z {
		z[i] = float64((i * 7) % 11)
	}
	tbl := mustTable(t, []string{"x", "y", "z"}, x, y, z)
	bps := mustMap(t, tbl,
		CharacteristicSpec{Name: "x", Percentiles: PercentileSpec{50}},
		CharacteristicSpec{Name: "y", Percentiles: PercentileSpec{100.0 / 3, 200.0 / 3}},
		CharacteristicSpec{Name: "z", Percentiles: PercentileSpec{25, 50, 75}},
	)

	it, err := AssignIndices(tbl, bps)
	require.NoError(t, err)
	lt, err := FormPortfolios(tbl, bps)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3, 4}, it.Shape())
	assert.Equal(t, 24, lt.Cols())

	for r := 0; r < it.Rows(); r++ {
		c := it.Composite(r)
		require.NotZero(t, c, "row %d is inside every range", r)
		assert.Equal(t, c, lt.At(r, c-1), "row %d tuple %v", r, it.Tuple(r))
		assert.Equal(t, it.Tuple(r), lt.Cell(c-1))
	}

	exclusive := it.Labels()
	total := 0
	for _, n := range exclusive.Counts() {
		total += n
	}
	assert.Equal(t, 900, total, "single membership partitions the sample")
}

func TestIndexTable_CompositeUnlabelled(t *testing.T) {
	tbl := mustTable(t, []string{"x", "y"}, []float64{1, 2, 50}, []float64{1, 2, 3})
	bps, err := NewBreakpointMap(
		BreakpointSet{Characteristic: "x", Values: []float64{0, 1, 3}},
		BreakpointSet{Characteristic: "y", Values: []float64{0, 2, 4}},
	)
	require.NoError(t, err)

	it, err := AssignIndices(tbl, bps)
	require.NoError(t, err)

	assert.Equal(t, 1, it.Composite(0))
	assert.Equal(t, 3, it.Composite(1))
	assert.Equal(t, 0, it.Composite(2), "x=50 is beyond the top breakpoint")
	assert.Equal(t, []int{0, 2}, it.Tuple(2))
}

func TestFormPortfolios_UnknownColumn(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, seq(1, 5))
	bps, err := NewBreakpointMap(BreakpointSet{Characteristic: "missing", Values: []float64{0, 1}})
	require.NoError(t, err)

	_, err = FormPortfolios(tbl, bps)
	assert.Error(t, err)
	_, err = AssignIndices(tbl, bps)
	assert.Error(t, err)

	_, err = FormPortfolios(tbl, &BreakpointMap{})
	assert.Error(t, err)
}

func TestNewLabelTable(t *testing.T) {
	lt, err := NewLabelTable([][]int{{1, 0, 1}, {0, 2, 0}})
	require.NoError(t, err)

	assert.Equal(t, 3, lt.Rows())
	assert.Equal(t, 2, lt.Cols())
	assert.Equal(t, 2, lt.At(1, 1))
	assert.Equal(t, 0, lt.At(1, 0))
	assert.Equal(t, []int{2, 1}, lt.Counts())

	_, err = NewLabelTable([][]int{{1, 0}, {2}})
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = NewLabelTable(nil)
	assert.ErrorIs(t, err, ErrInvalidSpecFormat)
}

func TestForEachCell(t *testing.T) {
	var cells [][]int
	forEachCell([]int{2, 2}, func(cell []int) {
		cells = append(cells, append([]int(nil), cell...))
	})
	assert.Equal(t, [][]int{{1, 1}, {1, 2}, {2, 1}, {2, 2}}, cells)

	called := false
	forEachCell([]int{2, 0}, func([]int) { called = true })
	assert.False(t, called)
}
