package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *InsightsCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewInsightsCache(client, time.Minute)
}

func TestInsightsCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1, "2024-01-01", "2024-01-31")
	require.False(t, ok)

	c.Set(ctx, 1, "2024-01-01", "2024-01-31", []byte(`{"totalOrders":3}`))
	data, ok := c.Get(ctx, 1, "2024-01-01", "2024-01-31")
	require.True(t, ok)
	require.JSONEq(t, `{"totalOrders":3}`, string(data))
}

func TestInsightsCacheInvalidateDropsAllWindows(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, 7, "2024-01-01", "2024-01-31", []byte(`{"a":1}`))
	c.Set(ctx, 7, "2024-02-01", "2024-02-29", []byte(`{"b":2}`))
	c.Set(ctx, 8, "2024-01-01", "2024-01-31", []byte(`{"c":3}`))

	c.Invalidate(ctx, 7)

	_, ok := c.Get(ctx, 7, "2024-01-01", "2024-01-31")
	require.False(t, ok)
	_, ok = c.Get(ctx, 7, "2024-02-01", "2024-02-29")
	require.False(t, ok)

	// Other tenants keep their entries.
	data, ok := c.Get(ctx, 8, "2024-01-01", "2024-01-31")
	require.True(t, ok)
	require.JSONEq(t, `{"c":3}`, string(data))
}

func TestInsightsCacheNilReceiverIsSafe(t *testing.T) {
	var c *InsightsCache
	ctx := context.Background()
	c.Set(ctx, 1, "a", "b", []byte("x"))
	c.Invalidate(ctx, 1)
	_, ok := c.Get(ctx, 1, "a", "b")
	require.False(t, ok)
}
