package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beaconlabs/beacon-core/internal/auth"
	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/internal/services"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

type HeartbeatHandler struct {
	heartbeats *services.HeartbeatService
	logger     logger.Logger
}

func NewHeartbeatHandler(heartbeats *services.HeartbeatService, logger logger.Logger) *HeartbeatHandler {
	return &HeartbeatHandler{heartbeats: heartbeats, logger: logger}
}

// POST /api/heartbeat - single or batch heartbeat ingestion
func (h *HeartbeatHandler) Ingest(c *gin.Context) {
	var req models.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	bearer := auth.ExtractBearer(c.GetHeader("Authorization"))
	results, outcome, err := h.heartbeats.Ingest(c.Request.Context(), &req, bearer)
	if err != nil {
		if errors.Is(err, services.ErrEmptyBatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "serviceId or services is required"})
			return
		}
		h.logger.Error("heartbeat ingestion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	switch outcome {
	case services.BatchAllSucceeded:
		c.JSON(http.StatusOK, gin.H{
			"message": "heartbeat recorded",
			"results": results,
		})
	case services.BatchPartialSuccess:
		c.JSON(http.StatusMultiStatus, gin.H{
			"message": "some heartbeats were not recorded",
			"results": results,
		})
	default:
		// Every observed all-failure mode is an auth failure: bad shared
		// key, bad per-service tokens, or a missing header.
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"results": results,
		})
	}
}
