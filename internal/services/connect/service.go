package connect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mahesh-1-0/shopify-insights/internal/auth"
	"github.com/mahesh-1-0/shopify-insights/internal/models"
	"github.com/mahesh-1-0/shopify-insights/internal/shopify"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
)

// Service completes storefront installs: it runs the OAuth handshake and
// materializes the shop as a tenant.
type Service struct {
	oauth  *shopify.OAuth
	client *shopify.Client
	store  *storage.Store
	logger *slog.Logger
}

func New(oauth *shopify.OAuth, client *shopify.Client, store *storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{oauth: oauth, client: client, store: store, logger: logger}
}

// AuthorizeURL starts the install flow for a shop.
func (s *Service) AuthorizeURL(ctx context.Context, shop string) (string, error) {
	return s.oauth.AuthorizeURL(ctx, shop)
}

// CompleteInstall exchanges the callback code and upserts the tenant. A
// shop reinstalling keeps its id and API key; only the connection data
// refreshes.
func (s *Service) CompleteInstall(ctx context.Context, shop, code, state string) (models.Tenant, error) {
	token, err := s.oauth.Exchange(ctx, shop, code, state)
	if err != nil {
		return models.Tenant{}, err
	}

	info, err := s.client.Shop(ctx, shop, token)
	if err != nil {
		return models.Tenant{}, fmt.Errorf("fetch shop info: %w", err)
	}
	name := info.Name
	if name == "" {
		name = shop
	}

	existing, err := s.store.Tenants.GetByShopDomain(ctx, shop)
	if err == nil {
		tenant, err := s.store.Tenants.UpdateConnection(ctx, existing.ID, name, &token)
		if err != nil {
			return models.Tenant{}, err
		}
		s.logger.Info("storefront reconnected", "tenant_id", tenant.ID, "shop", shop)
		return tenant, nil
	}
	if !errors.Is(err, storage.ErrTenantNotFound) {
		return models.Tenant{}, err
	}

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return models.Tenant{}, fmt.Errorf("generate api key: %w", err)
	}
	webhookSecret, err := auth.GenerateWebhookSecret()
	if err != nil {
		return models.Tenant{}, fmt.Errorf("generate webhook secret: %w", err)
	}

	tenant, err := s.store.Tenants.Create(ctx, models.Tenant{
		Name:          name,
		APIKey:        apiKey,
		ShopDomain:    &shop,
		AccessToken:   &token,
		WebhookSecret: webhookSecret,
	})
	if err != nil {
		return models.Tenant{}, err
	}
	s.logger.Info("storefront connected", "tenant_id", tenant.ID, "shop", shop)
	return tenant, nil
}
