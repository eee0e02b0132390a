package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/middleware"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"github.com/nayeon729/humanmakehub/internal/workflow"
	"go.uber.org/zap"
)

// UserHandler serves the caller's own profile and the admin user routes.
type UserHandler struct {
	users   repository.UserRepository
	service *workflow.Service
	logger  *zap.Logger
}

func NewUserHandler(users repository.UserRepository, service *workflow.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, service: service, logger: logger}
}

// GetMe handles GET /v1/users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, "failed to get user", err)
		return
	}
	if user == nil || user.Deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": workflow.MsgUserNotFound})
		return
	}

	c.JSON(http.StatusOK, user)
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeRole handles PUT /v1/admin/users/:id/role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.Param("id")
	if err := h.service.ChangeRole(c.Request.Context(), actorFrom(c), userID, rbac.Role(req.Role)); err != nil {
		respondError(c, h.logger, "failed to change role", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "등급이 변경되었습니다.", "user_id": userID, "role": req.Role})
}

// Delete handles DELETE /v1/admin/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	h.setDeleted(c, true, "회원이 삭제되었습니다.")
}

// Recover handles PUT /v1/admin/users/:id/recover.
func (h *UserHandler) Recover(c *gin.Context) {
	h.setDeleted(c, false, "회원이 복구되었습니다.")
}

func (h *UserHandler) setDeleted(c *gin.Context, deleted bool, message string) {
	userID := c.Param("id")
	if err := h.service.SetUserDeleted(c.Request.Context(), actorFrom(c), userID, deleted); err != nil {
		respondError(c, h.logger, "failed to update user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "user_id": userID})
}

// RemovePM handles POST /v1/admin/users/:id/pm-remove.
func (h *UserHandler) RemovePM(c *gin.Context) {
	userID := c.Param("id")
	unassigned, err := h.service.RemovePM(c.Request.Context(), actorFrom(c), userID)
	if err != nil {
		respondError(c, h.logger, "failed to remove pm", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":             "PM이 해제되었습니다.",
		"user_id":             userID,
		"projects_unassigned": unassigned,
	})
}
