package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository/memory"
	"github.com/nayeon729/humanmakehub/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*Resolver, *memory.Store) {
	t.Helper()
	s := miniredis.RunT(t)
	client, err := session.NewRedisClient(context.Background(), "redis://"+s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewStore()
	_, err = store.Users().Create(context.Background(), models.User{UserID: "pm1", Role: rbac.RolePM})
	require.NoError(t, err)

	return NewResolver(store, session.NewRoleCache(client, time.Minute), zap.NewNop()), store
}

func TestResolveReadsThroughCache(t *testing.T) {
	r, store := setup(t)
	ctx := context.Background()

	role, err := r.Resolve(ctx, "pm1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RolePM, role)

	// The cached value wins until invalidated.
	_, err = store.Users().UpdateRole(ctx, "pm1", rbac.RoleMember, "admin")
	require.NoError(t, err)
	role, err = r.Resolve(ctx, "pm1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RolePM, role)

	r.Invalidate(ctx, "pm1")
	role, err = r.Resolve(ctx, "pm1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleMember, role)
}

func TestResolveUnknownAndDeleted(t *testing.T) {
	r, store := setup(t)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "ghost")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = store.Users().SetDeleted(ctx, "pm1", true, "admin")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "pm1")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	// Deleted state is cached too; recovery needs an invalidate.
	_, err = store.Users().SetDeleted(ctx, "pm1", false, "admin")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "pm1")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	r.Invalidate(ctx, "pm1")
	role, err := r.Resolve(ctx, "pm1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RolePM, role)
}

func TestResolveWithoutCache(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, err := store.Users().Create(ctx, models.User{UserID: "c1", Role: rbac.RoleClient})
	require.NoError(t, err)

	r := NewResolver(store, nil, zap.NewNop())
	role, err := r.Resolve(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleClient, role)
	r.Invalidate(ctx, "c1")
}
