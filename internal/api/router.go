package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/middleware"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"github.com/nayeon729/humanmakehub/internal/workflow"
	"go.uber.org/zap"
)

// RouterConfig is everything the router needs. Resolver, AuthLimiter,
// AlertStream and Health are optional.
type RouterConfig struct {
	Store      repository.Store
	Service    *workflow.Service
	Dispatcher *notify.Dispatcher
	Resolver   middleware.RoleResolver

	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string

	AuthLimiter *middleware.RateLimiter
	AlertStream gin.HandlerFunc
	Health      func(ctx context.Context) error

	Logger *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(cfg.Logger),
		middleware.CORS(cfg.CORSOrigins),
	)

	router.GET("/v1/health", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				cfg.Logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(cfg.Store.Users(), cfg.JWTSecret, cfg.TokenTTL, cfg.Logger)
	userHandler := NewUserHandler(cfg.Store.Users(), cfg.Service, cfg.Logger)
	projectHandler := NewProjectHandler(cfg.Store, cfg.Service, cfg.Dispatcher, cfg.Logger)
	inviteHandler := NewInviteHandler(cfg.Store.JoinRequests(), cfg.Service, cfg.Dispatcher, cfg.Logger)
	alertHandler := NewAlertHandler(cfg.Store.Alerts(), cfg.Logger)
	channelHandler := NewChannelHandler(cfg.Service, cfg.Dispatcher, cfg.Logger)
	askHandler := NewAskHandler(cfg.Service, cfg.Dispatcher, cfg.Logger)

	public := router.Group("/v1/auth")
	if cfg.AuthLimiter != nil {
		public.Use(cfg.AuthLimiter.Middleware())
	}
	public.POST("/signup", authHandler.Signup)
	public.POST("/login", authHandler.Login)

	asks := router.Group("/v1/asks")
	if cfg.AuthLimiter != nil {
		asks.Use(cfg.AuthLimiter.Middleware())
	}
	asks.POST("", askHandler.Submit)

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret, cfg.Resolver))

	v1.GET("/users/me", userHandler.GetMe)

	// The workflow enforces roles on every mutation; the route guards
	// below cover the read-only routes and fail fast on the rest.
	manage := middleware.RequireAction(rbac.ActionManageProject, apperr.MsgAdminOnly)

	admin := v1.Group("/admin/users")
	admin.PUT("/:id/role", userHandler.ChangeRole)
	admin.DELETE("/:id", userHandler.Delete)
	admin.PUT("/:id/recover", userHandler.Recover)
	admin.POST("/:id/pm-remove", userHandler.RemovePM)

	v1.GET("/admin/asks", askHandler.List)
	v1.PUT("/admin/asks/:id/check", askHandler.Check)

	projects := v1.Group("/projects")
	projects.POST("", projectHandler.Create)
	projects.GET("", projectHandler.List)
	projects.GET("/:id", projectHandler.Get)
	projects.PATCH("/:id", manage, projectHandler.Update)
	projects.DELETE("/:id", manage, projectHandler.Delete)
	projects.PUT("/:id/pm", manage, projectHandler.AssignPM)
	projects.GET("/:id/pm-check/:user_id", manage, projectHandler.PMCheck)
	projects.GET("/:id/members", projectHandler.Members)
	projects.DELETE("/:id/members/:user_id", manage, projectHandler.RemoveMember)

	projects.POST("/:id/channel", channelHandler.Create)
	projects.GET("/:id/channel", channelHandler.List)
	projects.PUT("/:id/channel/read", channelHandler.MarkRead)
	v1.GET("/channel/:channel_id", channelHandler.Get)
	v1.PUT("/channel/:channel_id", channelHandler.Update)
	v1.DELETE("/channel/:channel_id", channelHandler.Delete)

	projects.POST("/:id/invites", manage, inviteHandler.Invite)
	projects.GET("/:id/invites", manage, inviteHandler.ListForProject)
	projects.POST("/:id/invites/:request_id/approve", manage, inviteHandler.Approve)
	projects.POST("/:id/invites/:request_id/reject", manage, inviteHandler.Reject)

	v1.GET("/invites", inviteHandler.Mine)
	v1.PUT("/invites/:request_id/respond", inviteHandler.Respond)

	v1.GET("/alerts", alertHandler.List)
	v1.PUT("/alerts/:id/dismiss", alertHandler.Dismiss)
	if cfg.AlertStream != nil {
		router.GET("/v1/alerts/stream",
			middleware.AuthMiddleware(cfg.JWTSecret, cfg.Resolver, middleware.AllowQueryToken()),
			cfg.AlertStream)
	}

	return router
}
