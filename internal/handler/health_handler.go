package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nicholas-0101/event-management-api/pkg/response"
)

// HealthChecker verifies a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles GET /health
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler creates a new HealthHandler. Nil checkers are skipped so
// optional dependencies like the cache do not fail startup wiring.
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	filtered := make(map[string]HealthChecker, len(checks))
	for name, check := range checks {
		if check != nil {
			filtered[name] = check
		}
	}
	return &HealthHandler{checks: filtered}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
		} else {
			status[name] = "ok"
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.ErrorWithDetails(
			response.ErrCodeServiceUnavailable, "One or more dependencies are unavailable", status))
		return
	}
	c.JSON(http.StatusOK, response.Success(status))
}
