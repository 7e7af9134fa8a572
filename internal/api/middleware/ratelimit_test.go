package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherwise/weatherwise/internal/api/middleware"
	"github.com/weatherwise/weatherwise/internal/api/models"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRateLimitByIP(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.PerMinute(3))(http.HandlerFunc(okHandler))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/weather", http.NoBody)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, call("10.0.0.1:1234").Code, "request %d", i+1)
	}

	rec := call("10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, http.StatusTooManyRequests, problem.Status)
	assert.Equal(t, "/weather", problem.Instance)

	// Another client has its own budget.
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1234").Code)
}

func TestRateLimitByUser_KeysOnPathParameter(t *testing.T) {
	r := chi.NewRouter()
	r.With(middleware.RateLimitByUser(middleware.PerMinute(2))).Get("/history/{userId}", okHandler)

	call := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		req.RemoteAddr = "10.0.0.9:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("/history/alice"))
	assert.Equal(t, http.StatusOK, call("/history/alice"))
	assert.Equal(t, http.StatusTooManyRequests, call("/history/alice"))

	// Same IP, different user.
	assert.Equal(t, http.StatusOK, call("/history/bob"))
}

func TestRateLimitByUser_FallsBackToIP(t *testing.T) {
	handler := middleware.RateLimitByUser(middleware.PerMinute(1))(http.HandlerFunc(okHandler))

	call := func() int {
		req := httptest.NewRequest(http.MethodPost, "/mock", http.NoBody)
		req.RemoteAddr = "10.0.0.3:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call())
	assert.Equal(t, http.StatusTooManyRequests, call())
}
