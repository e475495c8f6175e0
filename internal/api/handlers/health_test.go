package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) HealthCheck(ctx context.Context) error { return p.err }

func newHealthRouter(db, redis Pinger) *gin.Engine {
	handler := NewHealthHandler(db, redis, "1.0.0")
	router := gin.New()
	router.GET("/health", handler.Check)
	return router
}

func TestHealthCheckOK(t *testing.T) {
	router := newHealthRouter(&fakePinger{}, &fakePinger{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Equal(t, "ok", response.Services["database"])
	assert.Equal(t, "ok", response.Services["redis"])
}

func TestHealthCheckDegraded(t *testing.T) {
	router := newHealthRouter(&fakePinger{err: errors.New("connection refused")}, &fakePinger{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "error: connection refused", response.Services["database"])
	assert.Equal(t, "ok", response.Services["redis"])
}

func TestHealthCheckNotConfigured(t *testing.T) {
	router := newHealthRouter(&fakePinger{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "not configured", response.Services["redis"])
}
