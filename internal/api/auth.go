package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/auth"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"go.uber.org/zap"
)

const (
	msgDuplicateUserID  = apperr.MsgDuplicateUser
	msgBadCredentials   = "아이디 또는 비밀번호가 올바르지 않습니다."
	msgSignupRoleDenied = "가입할 수 없는 역할입니다."
)

// AuthHandler serves signup and login, the only routes outside
// AuthMiddleware.
type AuthHandler struct {
	users     repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(users repository.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type signupRequest struct {
	UserID   string `json:"user_id" binding:"required,min=4,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	Nickname string `json:"nickname" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	// Role defaults to R02. PM and admin accounts are made by promotion.
	Role string `json:"role"`
}

type loginRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token    string    `json:"access_token"`
	UserID   string    `json:"user_id"`
	Nickname string    `json:"nickname"`
	Role     rbac.Role `json:"role"`
}

// Signup handles POST /v1/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := rbac.RoleMember
	if req.Role != "" {
		role = rbac.Role(req.Role)
	}
	if role != rbac.RoleClient && role != rbac.RoleMember {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgSignupRoleDenied})
		return
	}

	userID := strings.TrimSpace(req.UserID)
	existing, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "failed to check existing user", err)
		return
	}
	// Soft-deleted ids stay taken.
	if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgDuplicateUserID})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, h.logger, "failed to hash password", err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), models.User{
		UserID:       userID,
		Nickname:     strings.TrimSpace(req.Nickname),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if apperr.KindOf(err) == apperr.KindConflict {
		// Lost a race with a concurrent signup for the same id.
		c.JSON(http.StatusBadRequest, gin.H{"error": msgDuplicateUserID})
		return
	}
	if err != nil {
		respondError(c, h.logger, "failed to create user", err)
		return
	}

	h.issue(c, http.StatusCreated, user)
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), strings.TrimSpace(req.UserID))
	if err != nil {
		respondError(c, h.logger, "failed to find user", err)
		return
	}

	// Unknown id, deleted account and wrong password all get the same answer.
	if user == nil || user.Deleted || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgBadCredentials})
		return
	}

	h.issue(c, http.StatusOK, user)
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User) {
	token, err := auth.GenerateToken(user.UserID, user.Role, h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondError(c, h.logger, "failed to generate token", err)
		return
	}

	c.JSON(status, authResponse{
		Token:    token,
		UserID:   user.UserID,
		Nickname: user.Nickname,
		Role:     user.Role,
	})
}
