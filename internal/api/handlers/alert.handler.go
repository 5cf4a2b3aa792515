package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beaconlabs/beacon-core/internal/alerts"
	"github.com/beaconlabs/beacon-core/internal/auth"
	"github.com/beaconlabs/beacon-core/internal/services"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

// maxAlertBodySize caps inbound webhook bodies at 1 MiB.
const maxAlertBodySize = 1 << 20

type AlertHandler struct {
	alerts *services.AlertService
	guard  *auth.Guard
	logger logger.Logger
}

func NewAlertHandler(alertService *services.AlertService, guard *auth.Guard, logger logger.Logger) *AlertHandler {
	return &AlertHandler{alerts: alertService, guard: guard, logger: logger}
}

// POST /api/alert - inbound alert webhook. The body is normalized before any
// dispatch; acceptance means "queued for delivery", never "delivered".
func (h *AlertHandler) Receive(c *gin.Context) {
	token := auth.ExtractBearer(c.GetHeader("Authorization"))
	if err := h.guard.AuthorizeAlert(token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAlertBodySize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read request body"})
		return
	}

	count, err := h.alerts.HandleInbound(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, alerts.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("alert ingestion failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("accepted %d alert(s)", count),
	})
}
