package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/middleware"
	"github.com/nayeon729/humanmakehub/internal/workflow"
	"go.uber.org/zap"
)

// respondError writes err as JSON. *apperr.Error values carry their own
// status and message; anything else is logged and reported as a 500
// without detail.
func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status(), gin.H{"error": appErr.Message})
		return
	}

	logger.Error(msg,
		zap.Error(err),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("user_id", middleware.GetUserID(c)),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": apperr.MsgInternal})
}

func actorFrom(c *gin.Context) workflow.Actor {
	return workflow.Actor{UserID: middleware.GetUserID(c), Role: middleware.GetRole(c)}
}

// idParam parses a numeric path parameter, writing a 400 when it is not one.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
