package shopify

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mahesh-1-0/shopify-insights/internal/config"
)

func newTestOAuth(t *testing.T) *OAuth {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cfg := config.ShopifyConfig{
		APIKey:      "app-key",
		APISecret:   "app-secret",
		Scopes:      []string{"read_orders"},
		RedirectURL: "https://example.com/api/auth/callback",
	}
	return NewOAuth(cfg, client)
}

func TestAuthorizeURLStoresState(t *testing.T) {
	o := newTestOAuth(t)
	ctx := context.Background()

	raw, err := o.AuthorizeURL(ctx, "demo.myshopify.com")
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "demo.myshopify.com", parsed.Host)
	require.Equal(t, "/admin/oauth/authorize", parsed.Path)

	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	require.Equal(t, "app-key", parsed.Query().Get("client_id"))

	stored, err := o.states.Get(ctx, o.stateKey("demo.myshopify.com")).Result()
	require.NoError(t, err)
	require.Equal(t, state, stored)
}

func TestExchangeRejectsUnknownState(t *testing.T) {
	o := newTestOAuth(t)
	ctx := context.Background()

	_, err := o.Exchange(ctx, "demo.myshopify.com", "code", "never-issued")
	require.True(t, errors.Is(err, ErrInvalidState))
}

func TestExchangeConsumesState(t *testing.T) {
	o := newTestOAuth(t)
	ctx := context.Background()

	raw, err := o.AuthorizeURL(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	state := parsed.Query().Get("state")

	// A mismatching state consumes the nonce, so a replay with the real
	// state must also fail.
	_, err = o.Exchange(ctx, "demo.myshopify.com", "code", "wrong")
	require.True(t, errors.Is(err, ErrInvalidState))
	_, err = o.Exchange(ctx, "demo.myshopify.com", "code", state)
	require.True(t, errors.Is(err, ErrInvalidState))
}

func TestOAuthDisabledWithoutCredentials(t *testing.T) {
	o := NewOAuth(config.ShopifyConfig{}, nil)
	_, err := o.AuthorizeURL(context.Background(), "demo.myshopify.com")
	require.True(t, errors.Is(err, ErrOAuthDisabled))
}

func TestParseMoney(t *testing.T) {
	require.Equal(t, 123.45, ParseMoney("123.45"))
	require.Equal(t, 0.0, ParseMoney(""))
	require.Equal(t, 0.0, ParseMoney("not-money"))
}
