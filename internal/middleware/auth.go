package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/auth"
	"github.com/nayeon729/humanmakehub/internal/rbac"
)

// Context keys for the authenticated caller.
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

// RoleResolver looks up a user's current role. identity.Resolver
// implements it.
type RoleResolver interface {
	Resolve(ctx context.Context, userID string) (rbac.Role, error)
}

// AuthOption adjusts AuthMiddleware.
type AuthOption func(*authOptions)

type authOptions struct {
	queryToken bool
}

// AllowQueryToken also accepts the token in the access_token query
// parameter. Browsers cannot set headers on a WebSocket handshake, so only
// the alert stream should use it.
func AllowQueryToken() AuthOption {
	return func(o *authOptions) { o.queryToken = true }
}

// AuthMiddleware validates the bearer token and stores the caller's id and
// role in the gin context.
//
// With a resolver the role comes from the resolver, not the token, so a
// role change takes effect on the next request. Without one the token's
// role is trusted until it expires.
func AuthMiddleware(secret string, resolver RoleResolver, opts ...AuthOption) gin.HandlerFunc {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c, o.queryToken)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		role := claims.Role
		if resolver != nil {
			role, err = resolver.Resolve(c.Request.Context(), claims.UserID)
			if err != nil {
				var appErr *apperr.Error
				if errors.As(err, &appErr) {
					c.AbortWithStatusJSON(appErr.Status(), gin.H{"error": appErr.Message})
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": apperr.MsgInternal})
				return
			}
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

func bearerToken(c *gin.Context, allowQuery bool) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if !allowQuery {
			return "", false
		}
		token := c.Query("access_token")
		return token, token != ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

func GetRole(c *gin.Context) rbac.Role {
	val, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	role, ok := val.(rbac.Role)
	if !ok {
		return ""
	}
	return role
}

// RequireAction aborts with 403 unless the caller's role allows action.
// It must run after AuthMiddleware.
func RequireAction(action rbac.Action, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rbac.Can(GetRole(c), action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": message})
			return
		}
		c.Next()
	}
}
