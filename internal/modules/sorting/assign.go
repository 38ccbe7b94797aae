package sorting

import (
	"fmt"

	"github.com/aristath/portsort/internal/sample"
)

// AssignUnivariate labels every value with its 1-based bucket under bp, or 0
// when the value lies outside the outer breakpoints. A value on an interior
// breakpoint goes to the lower bucket.
func AssignUnivariate(values []float64, bp BreakpointSet) []int {
	labels := make([]int, len(values))
	for i, v := range values {
		labels[i] = bp.Bucket(v)
	}
	return labels
}

// IndexTable is the tuple representation of a sort: an n x m table holding,
// for every observation, its bucket index in each of the m sort dimensions.
// Every observation has at most one bucket per dimension.
type IndexTable struct {
	dims    []string
	shape   []int
	columns [][]int
	rows    int
}

// AssignIndices computes the per-characteristic bucket of every observation
// in tbl, one column per entry of bps in map order.
func AssignIndices(tbl *sample.Table, bps *BreakpointMap) (*IndexTable, error) {
	if bps.Len() == 0 {
		return nil, &InvalidSpecFormatError{Reason: "no characteristics to sort on"}
	}

	it := &IndexTable{
		dims:    bps.Names(),
		shape:   bps.Shape(),
		columns: make([][]int, bps.Len()),
		rows:    tbl.Rows(),
	}
	for i, set := range bps.Sets() {
		values, err := tbl.Column(set.Characteristic)
		if err != nil {
			return nil, err
		}
		it.columns[i] = AssignUnivariate(values, set)
	}
	return it, nil
}

// Rows returns the number of observations.
func (it *IndexTable) Rows() int { return it.rows }

// Dimensions returns the characteristic names in sort order.
func (it *IndexTable) Dimensions() []string { return append([]string(nil), it.dims...) }

// Shape returns the bucket count per dimension.
func (it *IndexTable) Shape() []int { return append([]int(nil), it.shape...) }

// Column returns the bucket labels of dimension d. The slice must not be modified.
func (it *IndexTable) Column(d int) []int { return it.columns[d] }

// Tuple returns the bucket tuple of a row.
func (it *IndexTable) Tuple(row int) []int {
	out := make([]int, len(it.columns))
	for d, col := range it.columns {
		out[d] = col[row]
	}
	return out
}

// Composite returns the 1-based grid cell of a row, enumerating cells with
// the last dimension varying fastest, or 0 when any dimension is unlabelled.
// Cell c of this table corresponds to column c-1 of the LabelTable built by
// FormPortfolios from the same breakpoints.
func (it *IndexTable) Composite(row int) int {
	cell := 0
	for d, col := range it.columns {
		idx := col[row]
		if idx == 0 {
			return 0
		}
		cell = cell*it.shape[d] + (idx - 1)
	}
	return cell + 1
}

// Labels converts the tuple representation to a single-membership label
// table: column j holds j+1 for the rows whose composite cell is j+1.
func (it *IndexTable) Labels() *LabelTable {
	lt := newLabelTable(it.rows, it.dims, it.shape)
	for r := 0; r < it.rows; r++ {
		if c := it.Composite(r); c > 0 {
			lt.columns[c-1][r] = c
		}
	}
	return lt
}

// LabelTable is the grid representation of a sort: an n x P membership table
// with one column per portfolio. Column j holds j+1 for member rows and 0
// otherwise, so it can be fed straight into AveragePerPortfolio.
type LabelTable struct {
	dims    []string
	shape   []int
	cells   [][]int
	columns [][]int
	rows    int
}

// NewLabelTable wraps caller supplied label columns. Column j is expected to
// hold j+1 for member rows.
func NewLabelTable(columns [][]int) (*LabelTable, error) {
	if len(columns) == 0 {
		return nil, &InvalidSpecFormatError{Reason: "label table has no columns"}
	}
	rows := len(columns[0])
	lt := &LabelTable{
		shape:   []int{len(columns)},
		cells:   make([][]int, len(columns)),
		columns: make([][]int, len(columns)),
		rows:    rows,
	}
	for j, col := range columns {
		if len(col) != rows {
			return nil, fmt.Errorf("%w: label column %d has %d rows, expected %d", ErrLengthMismatch, j+1, len(col), rows)
		}
		lt.columns[j] = append([]int(nil), col...)
		lt.cells[j] = []int{j + 1}
	}
	return lt, nil
}

func newLabelTable(rows int, dims []string, shape []int) *LabelTable {
	p := 1
	for _, k := range shape {
		p *= k
	}
	lt := &LabelTable{
		dims:    append([]string(nil), dims...),
		shape:   append([]int(nil), shape...),
		cells:   make([][]int, 0, p),
		columns: make([][]int, p),
		rows:    rows,
	}
	for j := range lt.columns {
		lt.columns[j] = make([]int, rows)
	}
	forEachCell(shape, func(cell []int) {
		lt.cells = append(lt.cells, append([]int(nil), cell...))
	})
	return lt
}

// FormPortfolios builds the grid representation of an independent sort on
// every characteristic in bps. Columns enumerate the Cartesian product of
// bucket ranges with the last characteristic varying fastest. A row is a
// member of a column when each of its characteristics lies in the closed
// interval of that column's bucket, so a row sitting exactly on an interior
// breakpoint is a member of both neighbouring portfolios. With a single
// characteristic this is the n x k univariate membership table.
func FormPortfolios(tbl *sample.Table, bps *BreakpointMap) (*LabelTable, error) {
	if bps.Len() == 0 {
		return nil, &InvalidSpecFormatError{Reason: "no characteristics to sort on"}
	}

	n := tbl.Rows()
	sets := bps.Sets()

	// masks[d][b] marks the rows inside bucket b+1 of dimension d
	masks := make([][][]bool, len(sets))
	for d, set := range sets {
		values, err := tbl.Column(set.Characteristic)
		if err != nil {
			return nil, err
		}
		masks[d] = bucketMasks(values, set)
	}

	lt := newLabelTable(n, bps.Names(), bps.Shape())

	// prefix[d] is the AND of the masks of dimensions 0..d for the current cell;
	// only the dimensions at or after the one that changed are recomputed.
	prefix := make([][]bool, len(sets))
	for d := range prefix {
		prefix[d] = make([]bool, n)
	}
	prev := make([]int, len(sets))
	first := true

	for j, cell := range lt.cells {
		from := 0
		if !first {
			for from < len(cell) && cell[from] == prev[from] {
				from++
			}
		}
		for d := from; d < len(cell); d++ {
			mask := masks[d][cell[d]-1]
			if d == 0 {
				copy(prefix[0], mask)
				continue
			}
			andInto(prefix[d], prefix[d-1], mask)
		}
		copy(prev, cell)
		first = false

		label := j + 1
		col := lt.columns[j]
		for r, in := range prefix[len(cell)-1] {
			if in {
				col[r] = label
			}
		}
	}
	return lt, nil
}

func bucketMasks(values []float64, set BreakpointSet) [][]bool {
	k := set.Buckets()
	masks := make([][]bool, k)
	for b := 0; b < k; b++ {
		lo, hi := set.Values[b], set.Values[b+1]
		mask := make([]bool, len(values))
		for r, v := range values {
			mask[r] = v >= lo && v <= hi
		}
		masks[b] = mask
	}
	return masks
}

func andInto(dst, a, b []bool) {
	for i := range dst {
		dst[i] = a[i] && b[i]
	}
}

// forEachCell visits every 1-based bucket tuple of shape in Cartesian
// product order, last dimension fastest. The slice passed to fn is reused.
func forEachCell(shape []int, fn func(cell []int)) {
	if len(shape) == 0 {
		return
	}
	for _, k := range shape {
		if k <= 0 {
			return
		}
	}
	cell := make([]int, len(shape))
	for i := range cell {
		cell[i] = 1
	}
	for {
		fn(cell)
		d := len(cell) - 1
		for d >= 0 {
			cell[d]++
			if cell[d] <= shape[d] {
				break
			}
			cell[d] = 1
			d--
		}
		if d < 0 {
			return
		}
	}
}

// Rows returns the number of observations.
func (lt *LabelTable) Rows() int { return lt.rows }

// Cols returns the number of portfolios.
func (lt *LabelTable) Cols() int { return len(lt.columns) }

// Dimensions returns the characteristic names in sort order, nil for caller
// supplied tables.
func (lt *LabelTable) Dimensions() []string { return append([]string(nil), lt.dims...) }

// Shape returns the bucket count per dimension.
func (lt *LabelTable) Shape() []int { return append([]int(nil), lt.shape...) }

// At returns the label of row r in portfolio column c.
func (lt *LabelTable) At(r, c int) int { return lt.columns[c][r] }

// Column returns portfolio column c. The slice must not be modified.
func (lt *LabelTable) Column(c int) []int { return lt.columns[c] }

// Columns returns a copy of all label columns.
func (lt *LabelTable) Columns() [][]int {
	out := make([][]int, len(lt.columns))
	for i, col := range lt.columns {
		out[i] = append([]int(nil), col...)
	}
	return out
}

// Cell returns the per-dimension bucket tuple of portfolio column c.
func (lt *LabelTable) Cell(c int) []int { return append([]int(nil), lt.cells[c]...) }

// Cells returns the bucket tuples of every column.
func (lt *LabelTable) Cells() [][]int {
	out := make([][]int, len(lt.cells))
	for i := range lt.cells {
		out[i] = lt.Cell(i)
	}
	return out
}

// Counts returns the number of member rows per portfolio column.
func (lt *LabelTable) Counts() []int {
	counts := make([]int, len(lt.columns))
	for j, col := range lt.columns {
		label := j + 1
		for _, v := range col {
			if v == label {
				counts[j]++
			}
		}
	}
	return counts
}
