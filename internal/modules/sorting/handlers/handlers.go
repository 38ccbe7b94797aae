// Package handlers provides HTTP handlers for portfolio sort operations.
package handlers

import (
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/portsort/internal/modules/sorting"
	"github.com/aristath/portsort/internal/sample"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 10 << 20

// Handler handles portfolio sort HTTP requests
type Handler struct {
	service      *sorting.Service
	loader       *sample.Loader
	validate     *validator.Validate
	maxBodyBytes int64
	log          zerolog.Logger
}

// NewHandler creates a new portfolio sort handler. loader may be nil, in
// which case /run only accepts inline columns.
func NewHandler(service *sorting.Service, loader *sample.Loader, maxBodyBytes int64, log zerolog.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	v := validator.New()
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		service:      service,
		loader:       loader,
		validate:     v,
		maxBodyBytes: maxBodyBytes,
		log:          log.With().Str("handler", "sorting").Logger(),
	}
}

// BreakpointsRequest is the body of POST /api/sorts/breakpoints
type BreakpointsRequest struct {
	Characteristic string    `json:"characteristic" msgpack:"characteristic" validate:"required"`
	Values         []float64 `json:"values" msgpack:"values" validate:"required,min=1"`
	Percentiles    []float64 `json:"percentiles,omitempty" msgpack:"percentiles,omitempty"`
	Cuts           *int      `json:"cuts,omitempty" msgpack:"cuts,omitempty" validate:"omitempty,min=0,max=99"`
}

// AssignRequest is the body of POST /api/sorts/assign
type AssignRequest struct {
	Columns     map[string][]float64    `json:"columns" msgpack:"columns" validate:"required,min=1"`
	Breakpoints []sorting.BreakpointSet `json:"breakpoints" msgpack:"breakpoints" validate:"required,min=1"`
}

// AveragesRequest is the body of POST /api/sorts/averages
type AveragesRequest struct {
	Labels  [][]int   `json:"labels" msgpack:"labels" validate:"required,min=1"`
	Outcome []float64 `json:"outcome" msgpack:"outcome" validate:"required,min=1"`
	Weight  []float64 `json:"weight,omitempty" msgpack:"weight,omitempty"`
}

// RunRequest is the body of POST /api/sorts/run. Exactly one of Columns and
// Source supplies the sample.
type RunRequest struct {
	Columns       map[string][]float64 `json:"columns,omitempty" msgpack:"columns,omitempty" validate:"required_without=Source,excluded_with=Source"`
	Source        *sample.Source       `json:"source,omitempty" msgpack:"source,omitempty"`
	Sort          sorting.Request      `json:"sort" msgpack:"sort"`
	IncludeLabels bool                 `json:"include_labels,omitempty" msgpack:"include_labels,omitempty"`
}

// PortfolioSummary describes one portfolio of a sort.
type PortfolioSummary struct {
	Portfolio int      `json:"portfolio" msgpack:"portfolio"`
	Cell      []int    `json:"cell" msgpack:"cell"`
	Count     int      `json:"count" msgpack:"count"`
	Average   float64  `json:"average" msgpack:"average"`
	WeightSum *float64 `json:"weight_sum,omitempty" msgpack:"weight_sum,omitempty"`
}

// RunResponse is the data payload of POST /api/sorts/run
type RunResponse struct {
	Dimensions  []string                `json:"dimensions" msgpack:"dimensions"`
	Shape       []int                   `json:"shape" msgpack:"shape"`
	Rows        int                     `json:"rows" msgpack:"rows"`
	Breakpoints []sorting.BreakpointSet `json:"breakpoints" msgpack:"breakpoints"`
	Portfolios  []PortfolioSummary      `json:"portfolios" msgpack:"portfolios"`
	HML         float64                 `json:"hml" msgpack:"hml"`
	Weighted    bool                    `json:"weighted" msgpack:"weighted"`
	Exclusive   bool                    `json:"exclusive" msgpack:"exclusive"`
	Labels      [][]int                 `json:"labels,omitempty" msgpack:"labels,omitempty"`
}

// HandleBreakpoints handles POST /api/sorts/breakpoints
func (h *Handler) HandleBreakpoints(w http.ResponseWriter, r *http.Request) {
	var req BreakpointsRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	spec, err := sorting.CharacteristicSpec{
		Name:        req.Characteristic,
		Percentiles: req.Percentiles,
		Cuts:        req.Cuts,
	}.Spec()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	set, err := sorting.ComputeBreakpoints(req.Characteristic, req.Values, spec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, envelope(set, ""))
}

// HandleAssign handles POST /api/sorts/assign
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	tbl, err := tableFromColumns(req.Columns)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bps, err := sorting.NewBreakpointMap(req.Breakpoints...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	indices, err := sorting.AssignIndices(tbl, bps)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	labels, err := sorting.FormPortfolios(tbl, bps)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	indexColumns := make(map[string][]int, len(indices.Dimensions()))
	for d, name := range indices.Dimensions() {
		indexColumns[name] = indices.Column(d)
	}
	composite := make([]int, indices.Rows())
	for row := range composite {
		composite[row] = indices.Composite(row)
	}

	h.respond(w, r, http.StatusOK, envelope(map[string]interface{}{
		"dimensions": labels.Dimensions(),
		"shape":      labels.Shape(),
		"indices":    indexColumns,
		"composite":  composite,
		"labels":     labels.Columns(),
		"cells":      labels.Cells(),
		"counts":     labels.Counts(),
	}, ""))
}

// HandleAverages handles POST /api/sorts/averages
func (h *Handler) HandleAverages(w http.ResponseWriter, r *http.Request) {
	var req AveragesRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	labels, err := sorting.NewLabelTable(req.Labels)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	averages, err := sorting.AveragePerPortfolio(labels, req.Outcome, req.Weight)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, envelope(averages, ""))
}

// HandleRun handles POST /api/sorts/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	runID := uuid.New().String()
	log := h.log.With().Str("run_id", runID).Logger()

	var (
		tbl *sample.Table
		err error
	)
	if req.Source != nil {
		if h.loader == nil {
			h.writeError(w, r, fmt.Errorf("%w: stored samples are disabled", sample.ErrSourceNotAllowed))
			return
		}
		tbl, err = h.loader.Load(r.Context(), *req.Source)
	} else {
		tbl, err = tableFromColumns(req.Columns)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Debug().Int("rows", tbl.Rows()).Strs("columns", tbl.Names()).Msg("Sample loaded")

	res, err := h.service.Run(tbl, req.Sort)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, envelope(buildRunResponse(tbl, req, res), runID))
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := h.decode(w, r, v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}

func buildRunResponse(tbl *sample.Table, req RunRequest, res *sorting.Result) RunResponse {
	avg := res.Averages
	portfolios := make([]PortfolioSummary, len(avg.Values))
	for j := range avg.Values {
		p := PortfolioSummary{
			Portfolio: j + 1,
			Cell:      avg.Cells[j],
			Count:     avg.Counts[j],
			Average:   avg.Values[j],
		}
		if avg.WeightSums != nil {
			ws := avg.WeightSums[j]
			p.WeightSum = &ws
		}
		portfolios[j] = p
	}

	out := RunResponse{
		Dimensions:  res.Breakpoints.Names(),
		Shape:       res.Breakpoints.Shape(),
		Rows:        tbl.Rows(),
		Breakpoints: res.Breakpoints.Sets(),
		Portfolios:  portfolios,
		HML:         avg.HML,
		Weighted:    avg.Weighted,
		Exclusive:   req.Sort.Exclusive,
	}
	if req.IncludeLabels {
		out.Labels = res.Labels.Columns()
	}
	return out
}

// tableFromColumns builds a table with columns in name order, since JSON
// objects carry no order. Sort dimension order comes from the request.
func tableFromColumns(columns map[string][]float64) (*sample.Table, error) {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return sample.FromMap(names, columns)
}
