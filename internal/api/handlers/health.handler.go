package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beaconlabs/beacon-core/pkg/logger"
)

type HealthHandler struct {
	logger logger.Logger
}

func NewHealthHandler(logger logger.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// GET /health - Quick health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "beacon-core",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
