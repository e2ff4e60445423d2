package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/riskalloc/internal/modules/allocation"
	"github.com/aristath/riskalloc/internal/modules/optimization"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(opts optimization.Options) *Handler {
	log := zerolog.Nop()
	return NewHandler(
		optimization.NewOptimizer(opts, log),
		allocation.NewTreeFlattener(log),
		log,
	)
}

func TestRegisterRoutes(t *testing.T) {
	handler := newTestHandler(optimization.DefaultOptions())

	router := chi.NewRouter()
	require.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	}, "RegisterRoutes should not panic")

	testCases := []struct {
		method string
		path   string
		body   string
		name   string
	}{
		{"GET", "/optimizer/", "", "GetStatus"},
		{"POST", "/optimizer/run", "{}", "Run"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.NotEqual(t, http.StatusNotFound, rec.Code, "route %s %s should be registered", tc.method, tc.path)
			assert.NotEqual(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}
