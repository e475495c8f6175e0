package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service health for load balancers and dashboards.
type HealthHandler struct {
	db      Pinger
	redis   Pinger
	version string
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db, redis Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, version: version}
}

// Check pings the database and cache. Any unhealthy dependency degrades the
// overall status and the endpoint answers 503.
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Services:  make(map[string]string),
	}

	check := func(name string, p Pinger) {
		if p == nil {
			response.Services[name] = "not configured"
			response.Status = "degraded"
			return
		}
		if err := p.HealthCheck(c.Request.Context()); err != nil {
			response.Services[name] = "error: " + err.Error()
			response.Status = "degraded"
			return
		}
		response.Services[name] = "ok"
	}
	check("database", h.db)
	check("redis", h.redis)

	statusCode := http.StatusOK
	if response.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}
