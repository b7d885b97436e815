package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// InsightsCache stores serialized insight payloads keyed by tenant and
// window. Invalidation bumps a per-tenant version so stale entries simply
// age out under their TTL instead of being scanned for.
type InsightsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewInsightsCache(client *redis.Client, ttl time.Duration) *InsightsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InsightsCache{client: client, ttl: ttl}
}

func (c *InsightsCache) Get(ctx context.Context, tenantID int64, from, to string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	key, err := c.windowKey(ctx, tenantID, from, to)
	if err != nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *InsightsCache) Set(ctx context.Context, tenantID int64, from, to string, value []byte) {
	if c == nil || c.client == nil || len(value) == 0 {
		return
	}
	key, err := c.windowKey(ctx, tenantID, from, to)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, value, c.ttl)
}

// Invalidate drops every cached window for the tenant by bumping its version.
func (c *InsightsCache) Invalidate(ctx context.Context, tenantID int64) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Incr(ctx, c.versionKey(tenantID))
}

func (c *InsightsCache) windowKey(ctx context.Context, tenantID int64, from, to string) (string, error) {
	version, err := c.client.Get(ctx, c.versionKey(tenantID)).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("insights:%d:%d:%s:%s", tenantID, version, from, to), nil
}

func (c *InsightsCache) versionKey(tenantID int64) string {
	return fmt.Sprintf("insights:ver:%d", tenantID)
}
