// Package session caches per-user authorization state in Redis so the auth
// middleware does not hit Postgres on every request.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/redis/go-redis/v9"
)

// Entry is what the cache remembers about a user.
type Entry struct {
	Role     rbac.Role `json:"role"`
	Deleted  bool      `json:"deleted"`
	CachedAt time.Time `json:"cached_at"`
}

// RoleCache stores Entry values under role:<user_id>.
type RoleCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func NewRoleCache(client *redis.Client, ttl time.Duration) *RoleCache {
	return &RoleCache{
		client: client,
		prefix: "role:",
		ttl:    ttl,
	}
}

func (c *RoleCache) key(userID string) string {
	return c.prefix + userID
}

// Get returns the cached entry, or ok=false on a miss.
func (c *RoleCache) Get(ctx context.Context, userID string) (Entry, bool, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get cached role: %w", err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// A garbled entry is a miss; the next Set overwrites it.
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (c *RoleCache) Set(ctx context.Context, userID string, e Entry) error {
	if e.CachedAt.IsZero() {
		e.CachedAt = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cached role: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache role: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry. Called after any change to a user's
// role or deleted flag.
func (c *RoleCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached role: %w", err)
	}
	return nil
}

func (c *RoleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
