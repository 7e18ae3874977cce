package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	pkgredis "github.com/clubhub/calendar-service/pkg/redis"
)

// HealthHandler handles health and readiness probes
type HealthHandler struct {
	serviceName string
	version     string
	redis       *pkgredis.Client
	startedAt   time.Time
}

// NewHealthHandler creates a new health handler. redis may be nil when the
// cache is disabled; readiness then skips the ping.
func NewHealthHandler(serviceName, version string, redis *pkgredis.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		redis:       redis,
		startedAt:   time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.serviceName,
		"version": h.version,
		"uptime":  time.Since(h.startedAt).String(),
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
	})
}
