package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/securebank/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerRouter(cfg config.RateLimitConfig) http.Handler {
	r := chi.NewRouter()
	r.With(RateLimit(cfg)).Post("/api/transactions/deposit", okHandler().ServeHTTP)
	r.Get("/api/accounts", okHandler().ServeHTTP)
	return r
}

func sendFrom(handler http.Handler, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BurstOnLedgerRoute(t *testing.T) {
	router := newLedgerRouter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = sendFrom(router, http.MethodPost, "/api/transactions/deposit", "203.0.113.7:5555")
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)

	var body map[string]any
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, "Too many requests, please try again later", body["error"])
}

func TestRateLimit_PerClientAddress(t *testing.T) {
	router := newLedgerRouter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})

	assert.Equal(t, http.StatusCreated, sendFrom(router, http.MethodPost, "/api/transactions/deposit", "203.0.113.7:5555").Code)
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(router, http.MethodPost, "/api/transactions/deposit", "203.0.113.7:6666").Code)
	assert.Equal(t, http.StatusCreated, sendFrom(router, http.MethodPost, "/api/transactions/deposit", "198.51.100.2:5555").Code)
}

func TestRateLimit_ReadRoutesUnthrottled(t *testing.T) {
	router := newLedgerRouter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusCreated, sendFrom(router, http.MethodGet, "/api/accounts", "203.0.113.7:5555").Code)
	}
}

func TestRateLimit_DisabledAtZeroRate(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{})(okHandler())
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
}
