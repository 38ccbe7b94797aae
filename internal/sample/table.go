// Package sample holds the in-memory tabular input consumed by the sorting
// pipeline and the loaders that build it from CSV, XLSX and SQLite sources.
package sample

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNonTabularInput is the sentinel wrapped by every NonTabularInputError.
var ErrNonTabularInput = errors.New("input is not tabular")

// ErrUnknownColumn is returned when a requested column does not exist.
var ErrUnknownColumn = errors.New("unknown column")

// ErrUnknownTable is returned when the sample store has no such table.
var ErrUnknownTable = errors.New("unknown table")

// NonTabularInputError describes why an input could not be read as a table.
type NonTabularInputError struct {
	Column string
	Row    int // 1-based data row, 0 when not row specific
	Reason string
}

func (e *NonTabularInputError) Error() string {
	var b strings.Builder
	b.WriteString("non-tabular input")
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *NonTabularInputError) Unwrap() error { return ErrNonTabularInput }

// Table is an ordered set of equally long named numeric columns.
// A Table is immutable after construction.
type Table struct {
	names   []string
	columns map[string][]float64
	rows    int
}

// NewTable builds a table from parallel name/column slices. Columns are copied.
func NewTable(names []string, columns [][]float64) (*Table, error) {
	if len(names) == 0 {
		return nil, &NonTabularInputError{Reason: "no columns"}
	}
	if len(names) != len(columns) {
		return nil, &NonTabularInputError{
			Reason: fmt.Sprintf("%d column names for %d columns", len(names), len(columns)),
		}
	}

	t := &Table{
		names:   make([]string, 0, len(names)),
		columns: make(map[string][]float64, len(names)),
		rows:    len(columns[0]),
	}
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &NonTabularInputError{Reason: fmt.Sprintf("column %d has an empty name", i+1)}
		}
		if _, dup := t.columns[name]; dup {
			return nil, &NonTabularInputError{Column: name, Reason: "duplicate column name"}
		}
		if len(columns[i]) != t.rows {
			return nil, &NonTabularInputError{
				Column: name,
				Reason: fmt.Sprintf("has %d rows, expected %d", len(columns[i]), t.rows),
			}
		}
		col := make([]float64, t.rows)
		copy(col, columns[i])
		t.names = append(t.names, name)
		t.columns[name] = col
	}
	return t, nil
}

// FromMap builds a table from a name->column map, using order for the column order.
func FromMap(order []string, columns map[string][]float64) (*Table, error) {
	cols := make([][]float64, len(order))
	for i, name := range order {
		col, ok := columns[name]
		if !ok {
			return nil, &NonTabularInputError{Column: name, Reason: "column listed in order but missing"}
		}
		cols[i] = col
	}
	if len(columns) != len(order) {
		return nil, &NonTabularInputError{
			Reason: fmt.Sprintf("%d columns supplied, %d ordered", len(columns), len(order)),
		}
	}
	return NewTable(order, cols)
}

// Rows returns the number of observations.
func (t *Table) Rows() int { return t.rows }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Column returns the named column. The returned slice is shared with the
// table and must not be modified.
func (t *Table) Column(name string) ([]float64, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return col, nil
}
