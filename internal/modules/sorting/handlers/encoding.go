package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/portsort/internal/modules/sorting"
	"github.com/aristath/portsort/internal/sample"
)

const contentTypeMsgpack = "application/msgpack"

var errBadRequest = errors.New("bad request")

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error          string       `json:"error" msgpack:"error"`
	Code           string       `json:"code" msgpack:"code"`
	Characteristic string       `json:"characteristic,omitempty" msgpack:"characteristic,omitempty"`
	Column         string       `json:"column,omitempty" msgpack:"column,omitempty"`
	Row            int          `json:"row,omitempty" msgpack:"row,omitempty"`
	Value          *float64     `json:"value,omitempty" msgpack:"value,omitempty"`
	Portfolio      int          `json:"portfolio,omitempty" msgpack:"portfolio,omitempty"`
	Cell           []int        `json:"cell,omitempty" msgpack:"cell,omitempty"`
	Dimensions     []string     `json:"dimensions,omitempty" msgpack:"dimensions,omitempty"`
	Fields         []fieldError `json:"fields,omitempty" msgpack:"fields,omitempty"`
}

type fieldError struct {
	Field string `json:"field" msgpack:"field"`
	Rule  string `json:"rule" msgpack:"rule"`
}

// decode reads a JSON or msgpack body, depending on Content-Type.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer body.Close()

	if strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeMsgpack) {
		data, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("%w: failed to read request body: %w", errBadRequest, err)
		}
		if err := msgpack.Unmarshal(data, v); err != nil {
			return fmt.Errorf("%w: invalid msgpack body: %w", errBadRequest, err)
		}
		return nil
	}

	if err := render.DecodeJSON(body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", errBadRequest, err)
	}
	return nil
}

// respond writes v as msgpack when the client asks for it, JSON otherwise.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack) {
		data, err := msgpack.Marshal(v)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to encode msgpack response")
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeMsgpack)
		w.WriteHeader(status)
		if _, err := w.Write(data); err != nil {
			h.log.Error().Err(err).Msg("Failed to write msgpack response")
		}
		return
	}

	render.Status(r, status)
	render.JSON(w, r, v)
}

// envelope wraps a payload with response metadata.
func envelope(data interface{}, runID string) map[string]interface{} {
	meta := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if runID != "" {
		meta["run_id"] = runID
	}
	return map[string]interface{}{
		"data":     data,
		"metadata": meta,
	}
}

// writeError maps an error to a status code and a descriptive body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		h.log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	}
	h.respond(w, r, status, body)
}

func classify(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error()}

	var (
		validationErrs validator.ValidationErrors
		percentileErr  *sorting.InvalidPercentileError
		specErr        *sorting.InvalidSpecFormatError
		emptyErr       *sorting.EmptyPortfolioError
		tabularErr     *sample.NonTabularInputError
		maxBytesErr    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validationErrs):
		body.Code = "invalid_request"
		for _, fe := range validationErrs {
			body.Fields = append(body.Fields, fieldError{Field: fe.Namespace(), Rule: fe.Tag()})
		}
		return http.StatusBadRequest, body
	case errors.As(err, &maxBytesErr):
		body.Code = "body_too_large"
		return http.StatusRequestEntityTooLarge, body
	case errors.As(err, &percentileErr):
		body.Code = "invalid_percentile"
		body.Characteristic = percentileErr.Characteristic
		v := percentileErr.Value
		body.Value = &v
		return http.StatusBadRequest, body
	case errors.As(err, &specErr):
		body.Code = "invalid_spec_format"
		body.Characteristic = specErr.Characteristic
		return http.StatusBadRequest, body
	case errors.As(err, &emptyErr):
		body.Code = "empty_portfolio"
		body.Portfolio = emptyErr.Portfolio
		body.Cell = emptyErr.Cell
		body.Dimensions = emptyErr.Dimensions
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &tabularErr):
		body.Code = "non_tabular_input"
		body.Column = tabularErr.Column
		body.Row = tabularErr.Row
		return http.StatusBadRequest, body
	case errors.Is(err, sample.ErrUnknownTable):
		body.Code = "unknown_table"
		return http.StatusNotFound, body
	case errors.Is(err, sample.ErrUnknownColumn):
		body.Code = "unknown_column"
		return http.StatusBadRequest, body
	case errors.Is(err, sorting.ErrEmptySample),
		errors.Is(err, sorting.ErrNonFiniteValue),
		errors.Is(err, sorting.ErrLengthMismatch):
		body.Code = "invalid_sample"
		return http.StatusBadRequest, body
	case errors.Is(err, sample.ErrSourceNotAllowed):
		body.Code = "source_not_allowed"
		return http.StatusForbidden, body
	case errors.Is(err, os.ErrNotExist):
		body.Code = "source_not_found"
		return http.StatusNotFound, body
	case errors.Is(err, errBadRequest):
		body.Code = "bad_request"
		return http.StatusBadRequest, body
	default:
		body.Code = "internal"
		body.Error = "internal error"
		return http.StatusInternalServerError, body
	}
}
