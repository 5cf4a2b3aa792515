package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/internal/registry"
	"github.com/beaconlabs/beacon-core/internal/services"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

type StatusHandler struct {
	registry   *registry.Registry
	heartbeats *services.HeartbeatService
	logger     logger.Logger
}

func NewStatusHandler(reg *registry.Registry, heartbeats *services.HeartbeatService, logger logger.Logger) *StatusHandler {
	return &StatusHandler{registry: reg, heartbeats: heartbeats, logger: logger}
}

// GET /api/services - fleet snapshot
func (h *StatusHandler) ListServices(c *gin.Context) {
	snapshots := h.registry.List()
	c.JSON(http.StatusOK, gin.H{
		"services": snapshots,
		"count":    len(snapshots),
	})
}

// GET /api/services/:id - single service snapshot
func (h *StatusHandler) GetService(c *gin.Context) {
	id := c.Param("id")
	snap, ok := h.registry.Snapshot(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown service"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GET /api/services/:id/heartbeats - recent heartbeat audit log
func (h *StatusHandler) RecentHeartbeats(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.registry.Snapshot(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown service"})
		return
	}

	records, err := h.heartbeats.RecentHeartbeats(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to read heartbeat audit log", "service_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if records == nil {
		records = []models.HeartbeatRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"serviceId":  id,
		"heartbeats": records,
	})
}
