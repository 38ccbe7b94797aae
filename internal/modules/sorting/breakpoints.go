package sorting

import (
	"fmt"
	"sort"

	"github.com/aristath/portsort/pkg/formulas"
)

// BreakpointSet holds the breakpoint values of one characteristic, evaluated
// at the normalized percentiles. Values is non-decreasing; adjacent values
// may be equal when the characteristic has ties at that quantile.
type BreakpointSet struct {
	Characteristic string    `json:"characteristic" msgpack:"characteristic"`
	Percentiles    []float64 `json:"percentiles" msgpack:"percentiles"`
	Values         []float64 `json:"values" msgpack:"values"`
}

// ComputeBreakpoints evaluates the empirical percentile function of values
// (linear interpolation between order statistics) at every percentile of the
// normalized spec. values is not modified and its order does not matter.
func ComputeBreakpoints(characteristic string, values []float64, spec PercentileSpec) (BreakpointSet, error) {
	normalized, err := spec.normalize(characteristic)
	if err != nil {
		return BreakpointSet{}, err
	}
	if len(values) == 0 {
		return BreakpointSet{}, fmt.Errorf("%w: characteristic %q has no values", ErrEmptySample, characteristic)
	}
	if !formulas.AllFinite(values) {
		return BreakpointSet{}, fmt.Errorf("%w in characteristic %q", ErrNonFiniteValue, characteristic)
	}

	return BreakpointSet{
		Characteristic: characteristic,
		Percentiles:    normalized,
		Values:         formulas.Percentiles(values, normalized),
	}, nil
}

// Buckets returns the number of buckets, len(Values)-1.
func (b BreakpointSet) Buckets() int {
	if len(b.Values) < 2 {
		return 0
	}
	return len(b.Values) - 1
}

// Contains reports whether v lies in the closed interval of bucket (1-based).
func (b BreakpointSet) Contains(bucket int, v float64) bool {
	if bucket < 1 || bucket > b.Buckets() {
		return false
	}
	return v >= b.Values[bucket-1] && v <= b.Values[bucket]
}

// Bucket returns the 1-based bucket of v, or 0 when v lies outside
// [Values[0], Values[k]]. Intervals are closed on both ends, so a value equal
// to an interior breakpoint matches two buckets; the lower one wins.
func (b BreakpointSet) Bucket(v float64) int {
	k := b.Buckets()
	if k == 0 || !(v >= b.Values[0] && v <= b.Values[k]) {
		return 0
	}
	// smallest i with Values[i] >= v, searching the upper bounds only
	return sort.SearchFloat64s(b.Values[1:], v) + 1
}

// BreakpointMap is an ordered mapping from characteristic name to its
// breakpoints. Insertion order fixes the order of sort dimensions and hence
// the Cartesian enumeration of portfolio cells.
type BreakpointMap struct {
	order []string
	sets  map[string]BreakpointSet
}

// NewBreakpointMap builds a map from sets in the given order.
func NewBreakpointMap(sets ...BreakpointSet) (*BreakpointMap, error) {
	m := &BreakpointMap{sets: make(map[string]BreakpointSet, len(sets))}
	for _, s := range sets {
		if err := m.Add(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add appends a breakpoint set as the next sort dimension.
func (m *BreakpointMap) Add(set BreakpointSet) error {
	if m.sets == nil {
		m.sets = make(map[string]BreakpointSet)
	}
	if set.Characteristic == "" {
		return &InvalidSpecFormatError{Reason: "breakpoint set has no characteristic name"}
	}
	if _, dup := m.sets[set.Characteristic]; dup {
		return &InvalidSpecFormatError{Characteristic: set.Characteristic, Reason: "characteristic sorted twice"}
	}
	if set.Buckets() == 0 {
		return &InvalidSpecFormatError{Characteristic: set.Characteristic, Reason: "need at least two breakpoints"}
	}
	for i := 1; i < len(set.Values); i++ {
		if set.Values[i] < set.Values[i-1] {
			return &InvalidSpecFormatError{Characteristic: set.Characteristic, Reason: "breakpoints must be non-decreasing"}
		}
	}
	m.order = append(m.order, set.Characteristic)
	m.sets[set.Characteristic] = set
	return nil
}

// Len returns the number of sort dimensions.
func (m *BreakpointMap) Len() int { return len(m.order) }

// Names returns the characteristic names in sort order.
func (m *BreakpointMap) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Get returns the breakpoints of a characteristic.
func (m *BreakpointMap) Get(name string) (BreakpointSet, bool) {
	s, ok := m.sets[name]
	return s, ok
}

// Sets returns the breakpoint sets in sort order.
func (m *BreakpointMap) Sets() []BreakpointSet {
	out := make([]BreakpointSet, len(m.order))
	for i, name := range m.order {
		out[i] = m.sets[name]
	}
	return out
}

// Shape returns the bucket count of every dimension in sort order.
func (m *BreakpointMap) Shape() []int {
	out := make([]int, len(m.order))
	for i, name := range m.order {
		out[i] = m.sets[name].Buckets()
	}
	return out
}
