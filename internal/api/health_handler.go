package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/pushsync/internal/core"
)

// HealthHandler serves the unauthenticated health check.
type HealthHandler struct {
	healthService core.HealthService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(hs core.HealthService) *HealthHandler {
	return &HealthHandler{healthService: hs}
}

// HealthCheck always responds: 200 when the store answered, 503 otherwise.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	report := h.healthService.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
