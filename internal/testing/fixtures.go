package testing

import (
	"fmt"
	"strings"
)

// FirmColumns are the column names of NewFirmFixtures, in order.
var FirmColumns = []string{"size", "bm", "ret", "mcap"}

// NewFirmFixtures returns a deterministic cross-section of n firms as
// column-major data ordered like FirmColumns. size runs 1..n, bm is a
// permutation-like scramble of size (7i mod n), ret is size/100 and mcap is 1.
func NewFirmFixtures(n int) [][]float64 {
	size := make([]float64, n)
	bm := make([]float64, n)
	ret := make([]float64, n)
	mcap := make([]float64, n)
	for i := 0; i < n; i++ {
		size[i] = float64(i + 1)
		bm[i] = float64(((i + 1) * 7) % n)
		ret[i] = float64(i+1) / 100
		mcap[i] = 1
	}
	return [][]float64{size, bm, ret, mcap}
}

// FirmFixturesCSV renders NewFirmFixtures(n) as CSV with a header row.
func FirmFixturesCSV(n int) string {
	cols := NewFirmFixtures(n)

	var b strings.Builder
	b.WriteString(strings.Join(FirmColumns, ","))
	b.WriteString("\n")
	for r := 0; r < n; r++ {
		cells := make([]string, len(cols))
		for c := range cols {
			cells[c] = fmt.Sprintf("%g", cols[c][r])
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	return b.String()
}
