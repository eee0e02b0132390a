package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/middleware"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"go.uber.org/zap"
)

const msgAlertNotFound = "알림을 찾을 수 없습니다."

// AlertHandler serves the caller's notifications. PMs and admins also see
// the alerts addressed to the shared admin channel.
type AlertHandler struct {
	alerts repository.AlertRepository
	logger *zap.Logger
}

func NewAlertHandler(alerts repository.AlertRepository, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, logger: logger}
}

// List handles GET /v1/alerts.
func (h *AlertHandler) List(c *gin.Context) {
	alerts, err := h.alerts.ListFor(c.Request.Context(), middleware.GetUserID(c), middleware.GetRole(c).Privileged())
	if err != nil {
		respondError(c, h.logger, "failed to list alerts", err)
		return
	}

	c.JSON(http.StatusOK, alerts)
}

// Dismiss handles PUT /v1/alerts/:id/dismiss.
func (h *AlertHandler) Dismiss(c *gin.Context) {
	alertID, ok := idParam(c, "id")
	if !ok {
		return
	}

	n, err := h.alerts.Dismiss(c.Request.Context(), alertID, middleware.GetUserID(c), middleware.GetRole(c).Privileged())
	if err != nil {
		respondError(c, h.logger, "failed to dismiss alert", err)
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": msgAlertNotFound})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "알림을 삭제했습니다."})
}
