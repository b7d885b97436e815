package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mahesh-1-0/shopify-insights/internal/auth"
	"github.com/mahesh-1-0/shopify-insights/internal/cache"
	"github.com/mahesh-1-0/shopify-insights/internal/config"
	"github.com/mahesh-1-0/shopify-insights/internal/observability"
	"github.com/mahesh-1-0/shopify-insights/internal/services/connect"
	"github.com/mahesh-1-0/shopify-insights/internal/services/events"
	"github.com/mahesh-1-0/shopify-insights/internal/services/ingest"
	"github.com/mahesh-1-0/shopify-insights/internal/services/insights"
	"github.com/mahesh-1-0/shopify-insights/internal/services/webhook"
	"github.com/mahesh-1-0/shopify-insights/internal/shopify"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
)

// Container wires configuration, storage, and services together for the
// HTTP layer and the command-line entrypoints.
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	DBPool        *pgxpool.Pool
	Redis         *redis.Client
	Store         *storage.Store
	Observability *observability.Provider
	Location      *time.Location

	InsightsCache *cache.InsightsCache
	ShopifyClient *shopify.Client

	Insights *insights.Service
	Ingest   *ingest.Service
	Webhooks *webhook.Service
	Events   *events.Service
	Connect  *connect.Service
}

// NewContainer assembles the service graph and ensures bootstrap tenants exist.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, provider *observability.Provider, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load reporting timezone: %w", err)
	}

	store := storage.NewStore(pool)

	var insightsCache *cache.InsightsCache
	if cfg.Insights.CacheEnabled && redisClient != nil {
		insightsCache = cache.NewInsightsCache(redisClient, cfg.Insights.CacheTTL)
	}

	shopifyClient := shopify.NewClient(cfg.Shopify)
	oauth := shopify.NewOAuth(cfg.Shopify, redisClient)

	ingestSvc := ingest.New(store, shopifyClient, insightsCache, logger)

	container := &Container{
		Config:        cfg,
		Logger:        logger,
		DBPool:        pool,
		Redis:         redisClient,
		Store:         store,
		Observability: provider,
		Location:      loc,
		InsightsCache: insightsCache,
		ShopifyClient: shopifyClient,
		Insights:      insights.New(insights.NewStorageStore(store), insightsCache, loc, logger),
		Ingest:        ingestSvc,
		Webhooks:      webhook.New(webhook.NewStorageEventStore(store), ingestSvc, logger),
		Events:        events.New(events.NewStorageStore(store), insightsCache, loc),
		Connect:       connect.New(oauth, shopifyClient, store, logger),
	}

	if err := container.ensureBootstrap(ctx); err != nil {
		return nil, err
	}
	return container, nil
}

// ensureBootstrap creates the configured demo tenants when missing.
func (c *Container) ensureBootstrap(ctx context.Context) error {
	for _, tenant := range c.Config.Bootstrap.Tenants {
		secret, err := auth.GenerateWebhookSecret()
		if err != nil {
			return fmt.Errorf("generate webhook secret: %w", err)
		}
		stored, err := c.Store.Tenants.Ensure(ctx, tenant.Name, tenant.APIKey, secret)
		if err != nil {
			return fmt.Errorf("bootstrap tenant %q: %w", tenant.Name, err)
		}
		c.Logger.Info("bootstrap tenant ready", "tenant_id", stored.ID, "name", stored.Name)
	}
	return nil
}
