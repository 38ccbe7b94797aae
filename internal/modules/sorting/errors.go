package sorting

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidSpecFormat means a percentile spec is not an ordered list of distinct numbers.
	ErrInvalidSpecFormat = errors.New("invalid percentile spec format")
	// ErrInvalidPercentile means a percentile lies outside [0,100].
	ErrInvalidPercentile = errors.New("percentile outside [0,100]")
	// ErrEmptyPortfolio means a portfolio has no observations to average.
	ErrEmptyPortfolio = errors.New("empty portfolio")
	// ErrEmptySample means there are no observations to compute breakpoints from.
	ErrEmptySample = errors.New("empty sample")
	// ErrNonFiniteValue means a NaN or infinite value reached a computation.
	ErrNonFiniteValue = errors.New("non-finite value")
	// ErrLengthMismatch means parallel arrays have different lengths.
	ErrLengthMismatch = errors.New("length mismatch")
)

// InvalidSpecFormatError reports a malformed percentile spec.
type InvalidSpecFormatError struct {
	Characteristic string
	Reason         string
}

func (e *InvalidSpecFormatError) Error() string {
	return fmt.Sprintf("%s%s: %s", ErrInvalidSpecFormat, forCharacteristic(e.Characteristic), e.Reason)
}

func (e *InvalidSpecFormatError) Unwrap() error { return ErrInvalidSpecFormat }

// InvalidPercentileError reports a percentile outside [0,100].
type InvalidPercentileError struct {
	Characteristic string
	Value          float64
}

func (e *InvalidPercentileError) Error() string {
	return fmt.Sprintf("%s%s: %s", ErrInvalidPercentile, forCharacteristic(e.Characteristic),
		strconv.FormatFloat(e.Value, 'g', -1, 64))
}

func (e *InvalidPercentileError) Unwrap() error { return ErrInvalidPercentile }

// EmptyPortfolioError reports a portfolio that cannot be averaged.
type EmptyPortfolioError struct {
	Portfolio  int      // 1-based label table column
	Cell       []int    // per-characteristic bucket tuple, nil when unknown
	Dimensions []string // characteristics the cell is indexed by, nil when unknown
	Reason     string
}

func (e *EmptyPortfolioError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: portfolio %d", ErrEmptyPortfolio, e.Portfolio)
	if len(e.Cell) > 0 {
		parts := make([]string, len(e.Cell))
		for i, c := range e.Cell {
			parts[i] = strconv.Itoa(c)
			if len(e.Dimensions) == len(e.Cell) {
				parts[i] = e.Dimensions[i] + "=" + parts[i]
			}
		}
		fmt.Fprintf(&b, " (cell %s)", strings.Join(parts, ", "))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *EmptyPortfolioError) Unwrap() error { return ErrEmptyPortfolio }

func forCharacteristic(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf(" for %q", name)
}
