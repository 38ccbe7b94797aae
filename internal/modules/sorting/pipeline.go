// Package sorting implements univariate and independent multivariate
// portfolio sorts: percentile breakpoints per characteristic, assignment of
// observations to portfolios, and per-portfolio average outcomes with the
// high-minus-low spread. Every stage is a pure function over its inputs.
package sorting

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/portsort/internal/sample"
	"github.com/aristath/portsort/internal/utils"
	"github.com/aristath/portsort/pkg/logger"
)

// CharacteristicSpec selects a characteristic and how to split it. Explicit
// Percentiles win over Cuts; with neither, quintiles are used.
type CharacteristicSpec struct {
	Name        string         `json:"name" msgpack:"name" validate:"required"`
	Percentiles PercentileSpec `json:"percentiles,omitempty" msgpack:"percentiles,omitempty"`
	Cuts        *int           `json:"cuts,omitempty" msgpack:"cuts,omitempty" validate:"omitempty,min=0,max=99"`
}

// Spec resolves the percentile spec of the characteristic. Errors name the
// characteristic.
func (c CharacteristicSpec) Spec() (PercentileSpec, error) {
	switch {
	case c.Percentiles != nil:
		return c.Percentiles, nil
	case c.Cuts != nil:
		spec, err := EvenlySpaced(*c.Cuts)
		var specErr *InvalidSpecFormatError
		if errors.As(err, &specErr) {
			specErr.Characteristic = c.Name
		}
		return spec, err
	default:
		return DefaultSpec(), nil
	}
}

// Request describes one sort. Exclusive selects single-membership cells
// (ties go to the lower bucket) instead of the inclusive grid.
type Request struct {
	Characteristics []CharacteristicSpec `json:"characteristics" msgpack:"characteristics" validate:"required,min=1,dive"`
	Outcome         string               `json:"outcome" msgpack:"outcome" validate:"required"`
	Weight          string               `json:"weight,omitempty" msgpack:"weight,omitempty"`
	Exclusive       bool                 `json:"exclusive,omitempty" msgpack:"exclusive,omitempty"`
}

// Result carries every stage's output of a sort.
type Result struct {
	Breakpoints *BreakpointMap
	Indices     *IndexTable
	Labels      *LabelTable
	Averages    *Averages
}

// Breakpoints computes the breakpoint map for every requested characteristic
// of tbl, in request order.
func Breakpoints(tbl *sample.Table, specs []CharacteristicSpec) (*BreakpointMap, error) {
	bps := &BreakpointMap{}
	for _, c := range specs {
		spec, err := c.Spec()
		if err != nil {
			return nil, err
		}
		values, err := tbl.Column(c.Name)
		if err != nil {
			return nil, err
		}
		set, err := ComputeBreakpoints(c.Name, values, spec)
		if err != nil {
			return nil, err
		}
		if err := bps.Add(set); err != nil {
			return nil, err
		}
	}
	return bps, nil
}

// Run chains breakpoints, portfolio formation and aggregation for req on tbl.
func Run(tbl *sample.Table, req Request) (*Result, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: no sample", ErrEmptySample)
	}
	if len(req.Characteristics) == 0 {
		return nil, &InvalidSpecFormatError{Reason: "no characteristics to sort on"}
	}

	outcome, err := tbl.Column(req.Outcome)
	if err != nil {
		return nil, fmt.Errorf("outcome: %w", err)
	}
	var weight []float64
	if req.Weight != "" {
		if weight, err = tbl.Column(req.Weight); err != nil {
			return nil, fmt.Errorf("weight: %w", err)
		}
	}

	bps, err := Breakpoints(tbl, req.Characteristics)
	if err != nil {
		return nil, err
	}
	indices, err := AssignIndices(tbl, bps)
	if err != nil {
		return nil, err
	}

	var labels *LabelTable
	if req.Exclusive {
		labels = indices.Labels()
	} else if labels, err = FormPortfolios(tbl, bps); err != nil {
		return nil, err
	}

	averages, err := AveragePerPortfolio(labels, outcome, weight)
	if err != nil {
		return nil, err
	}

	return &Result{
		Breakpoints: bps,
		Indices:     indices,
		Labels:      labels,
		Averages:    averages,
	}, nil
}

// Service runs sorts with logging.
type Service struct {
	log zerolog.Logger
}

// NewService creates a sorting service
func NewService(log zerolog.Logger) *Service {
	return &Service{log: logger.Component(log, "sorting")}
}

// Run executes req against tbl.
func (s *Service) Run(tbl *sample.Table, req Request) (*Result, error) {
	timer := utils.NewTimer("sort", s.log)
	res, err := Run(tbl, req)
	if err != nil {
		s.log.Warn().Err(err).
			Str("outcome", req.Outcome).
			Int("dimensions", len(req.Characteristics)).
			Msg("Sort failed")
		return nil, err
	}

	timer.StopWithContext(map[string]interface{}{
		"rows":       tbl.Rows(),
		"shape":      res.Breakpoints.Shape(),
		"portfolios": res.Labels.Cols(),
		"hml":        res.Averages.HML,
		"weighted":   res.Averages.Weighted,
	})
	return res, nil
}
