// Package identity answers "what role does this user hold right now".
// Roles change while tokens are live (a PM gets demoted), so the role in
// the JWT is only a hint.
package identity

import (
	"context"
	"fmt"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"github.com/nayeon729/humanmakehub/internal/session"
	"go.uber.org/zap"
)

const msgUnknownUser = "유효하지 않은 사용자입니다."

// Cache is the subset of session.RoleCache the resolver uses.
type Cache interface {
	Get(ctx context.Context, userID string) (session.Entry, bool, error)
	Set(ctx context.Context, userID string, e session.Entry) error
	Invalidate(ctx context.Context, userID string) error
}

type Resolver struct {
	store  repository.Store
	cache  Cache
	logger *zap.Logger
}

// NewResolver builds a resolver. cache may be nil, in which case every
// call reads the users table.
func NewResolver(store repository.Store, cache Cache, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, cache: cache, logger: logger}
}

// Resolve returns the user's current role. Missing and soft-deleted users
// get an Unauthorized error.
func (r *Resolver) Resolve(ctx context.Context, userID string) (rbac.Role, error) {
	if r.cache != nil {
		e, ok, err := r.cache.Get(ctx, userID)
		if err != nil {
			r.logger.Warn("role cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if ok {
			if e.Deleted {
				return "", apperr.Unauthorized(msgUnknownUser)
			}
			return e.Role, nil
		}
	}

	u, err := r.store.Users().GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve role: %w", err)
	}
	if u == nil {
		return "", apperr.Unauthorized(msgUnknownUser)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, userID, session.Entry{Role: u.Role, Deleted: u.Deleted}); err != nil {
			r.logger.Warn("role cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if u.Deleted {
		return "", apperr.Unauthorized(msgUnknownUser)
	}
	return u.Role, nil
}

// Invalidate forgets the cached role. Failures are logged: the entry
// expires on its own after the cache TTL.
func (r *Resolver) Invalidate(ctx context.Context, userID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, userID); err != nil {
		r.logger.Warn("role cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
