package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/internal/services"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

type NotificationHandler struct {
	alerts *services.AlertService
	logger logger.Logger
}

func NewNotificationHandler(alertService *services.AlertService, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{alerts: alertService, logger: logger}
}

// POST /api/test-notification - synchronous delivery probe for one channel
func (h *NotificationHandler) SendTest(c *gin.Context) {
	var req models.TestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	if req.ChannelType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "channelType is required"})
		return
	}

	result, err := h.alerts.SendTest(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if !result.Success {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "delivery failed: " + result.Error,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "test notification sent via " + result.Channel,
	})
}
