package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/portsort/internal/modules/sorting"
)

func TestRegisterRoutes(t *testing.T) {
	h := NewHandler(sorting.NewService(zerolog.Nop()), nil, 0, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	expected := map[string]bool{
		"POST /sorts/breakpoints": false,
		"POST /sorts/assign":      false,
		"POST /sorts/averages":    false,
		"POST /sorts/run":         false,
	}
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		key := method + " " + route
		if _, ok := expected[key]; ok {
			expected[key] = true
		}
		return nil
	})
	assert.NoError(t, err)
	for route, found := range expected {
		assert.True(t, found, "route %s not registered", route)
	}
}

func TestRegisterRoutes_MethodNotAllowed(t *testing.T) {
	h := NewHandler(sorting.NewService(zerolog.Nop()), nil, 0, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/sorts/run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleRun_StoredSamplesDisabled(t *testing.T) {
	h := NewHandler(sorting.NewService(zerolog.Nop()), nil, 0, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	w := post(t, r, "/sorts/run", map[string]interface{}{
		"source": map[string]interface{}{"kind": "sqlite", "table": "firms"},
		"sort": map[string]interface{}{
			"characteristics": []map[string]interface{}{{"name": "size"}},
			"outcome":         "ret",
		},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
