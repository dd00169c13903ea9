package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/hospital-auth/internal/domain"
)

const profileKeyPrefix = "auth:profile:"

// CachedProfile is the subset of a user record served by profile lookups.
type CachedProfile struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// ProfileCache stores profile lookups in Redis with a bounded TTL. All
// operations are best-effort: a cache failure never fails the request.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache builds a cache. A nil client or non-positive TTL disables it.
func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

// Get returns the cached profile for the subject, or false on miss or error.
func (c *ProfileCache) Get(ctx context.Context, subjectID string) (*CachedProfile, bool) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil, false
	}
	raw, err := c.client.Get(ctx, profileKeyPrefix+subjectID).Bytes()
	if err != nil {
		return nil, false
	}
	var profile CachedProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

// Set stores the profile for the configured TTL.
func (c *ProfileCache) Set(ctx context.Context, profile *CachedProfile) {
	if c == nil || c.client == nil || c.ttl <= 0 || profile == nil {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, profileKeyPrefix+profile.ID, raw, c.ttl).Err()
}

// Invalidate drops the cached profile for the subject.
func (c *ProfileCache) Invalidate(ctx context.Context, subjectID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, profileKeyPrefix+subjectID).Err()
}
