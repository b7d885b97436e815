package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mahesh-1-0/shopify-insights/internal/cache"
	"github.com/mahesh-1-0/shopify-insights/internal/models"
	"github.com/mahesh-1-0/shopify-insights/internal/shopify"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
)

// Service pulls storefront records into the per-tenant store. Everything
// is an upsert keyed on the record's external id, so repeated syncs and
// overlapping webhook deliveries converge on the same rows.
type Service struct {
	store  *storage.Store
	client *shopify.Client
	cache  *cache.InsightsCache
	logger *slog.Logger
}

func New(store *storage.Store, client *shopify.Client, insightsCache *cache.InsightsCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, client: client, cache: insightsCache, logger: logger}
}

// SyncResult reports what one sync run touched.
type SyncResult struct {
	Mode      string `json:"mode"`
	Customers int    `json:"customers"`
	Products  int    `json:"products"`
	Orders    int    `json:"orders"`
}

// Sync refreshes the tenant's records from the storefront API. Demo
// tenants have no store connection; for them the sync reports current
// record counts without touching anything.
func (s *Service) Sync(ctx context.Context, tenant models.Tenant) (SyncResult, error) {
	if s.isDemo(tenant) {
		return s.demoCounts(ctx, tenant)
	}

	shop := *tenant.ShopDomain
	token := *tenant.AccessToken
	result := SyncResult{Mode: "live"}

	customers, err := s.client.Customers(ctx, shop, token)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync customers: %w", err)
	}
	for _, payload := range customers {
		if _, err := s.SyncCustomer(ctx, tenant.ID, payload); err != nil {
			return SyncResult{}, err
		}
		result.Customers++
	}

	products, err := s.client.Products(ctx, shop, token)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync products: %w", err)
	}
	for _, payload := range products {
		if _, err := s.SyncProduct(ctx, tenant.ID, payload); err != nil {
			return SyncResult{}, err
		}
		result.Products++
	}

	// Orders go last so their customer and product references resolve.
	orders, err := s.client.Orders(ctx, shop, token)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync orders: %w", err)
	}
	for _, payload := range orders {
		if _, err := s.SyncOrder(ctx, tenant.ID, payload); err != nil {
			return SyncResult{}, err
		}
		result.Orders++
	}

	s.cache.Invalidate(ctx, tenant.ID)
	s.logger.Info("storefront sync complete",
		"tenant_id", tenant.ID,
		"customers", result.Customers,
		"products", result.Products,
		"orders", result.Orders)
	return result, nil
}

// SyncCustomer upserts one storefront customer payload.
func (s *Service) SyncCustomer(ctx context.Context, tenantID int64, payload shopify.CustomerPayload) (models.Customer, error) {
	customer := models.Customer{
		TenantID:    tenantID,
		ExternalID:  strconv.FormatInt(payload.ID, 10),
		TotalSpent:  shopify.ParseMoney(payload.TotalSpent),
		OrdersCount: payload.OrdersCount,
	}
	if payload.Email != "" {
		customer.Email = &payload.Email
	}
	if payload.FirstName != "" {
		customer.FirstName = &payload.FirstName
	}
	if payload.LastName != "" {
		customer.LastName = &payload.LastName
	}
	return s.store.Customers.Upsert(ctx, customer)
}

// SyncProduct upserts one storefront product payload.
func (s *Service) SyncProduct(ctx context.Context, tenantID int64, payload shopify.ProductPayload) (models.Product, error) {
	product := models.Product{
		TenantID:   tenantID,
		ExternalID: strconv.FormatInt(payload.ID, 10),
		Title:      payload.Title,
		Price:      payload.Price(),
	}
	if payload.Vendor != "" {
		product.Vendor = &payload.Vendor
	}
	return s.store.Products.Upsert(ctx, product)
}

// SyncOrder upserts one storefront order payload, resolving its customer
// and line-item products by external id. References to records not yet
// ingested are skipped, not failed: a later sync pass fills them in.
func (s *Service) SyncOrder(ctx context.Context, tenantID int64, payload shopify.OrderPayload) (models.Order, error) {
	order := models.Order{
		TenantID:    tenantID,
		ExternalID:  strconv.FormatInt(payload.ID, 10),
		Total:       shopify.ParseMoney(payload.TotalPrice),
		Currency:    payload.Currency,
		CreatedAt:   payload.CreatedAt,
		ProcessedAt: payload.ProcessedAt,
	}
	if order.Currency == "" {
		order.Currency = "USD"
	}
	if payload.FinancialStatus != "" {
		order.FinancialStatus = &payload.FinancialStatus
	}
	if payload.FulfillmentStatus != "" {
		order.FulfillmentStatus = &payload.FulfillmentStatus
	}

	if payload.Customer != nil {
		customer, err := s.store.Customers.GetByExternalID(ctx, tenantID, strconv.FormatInt(payload.Customer.ID, 10))
		if err == nil {
			order.CustomerID = &customer.ID
		} else if !errors.Is(err, storage.ErrNotFound) {
			return models.Order{}, err
		}
	}

	productIDs := []int64{}
	seen := map[int64]bool{}
	for _, item := range payload.LineItems {
		if item.ProductID == nil {
			continue
		}
		product, err := s.store.Products.GetByExternalID(ctx, tenantID, strconv.FormatInt(*item.ProductID, 10))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return models.Order{}, err
		}
		if !seen[product.ID] {
			seen[product.ID] = true
			productIDs = append(productIDs, product.ID)
		}
	}

	return s.store.Orders.Upsert(ctx, order, productIDs)
}

// InvalidateInsights drops the tenant's cached insight windows. Exposed
// for the webhook path, which writes through this service's upserts.
func (s *Service) InvalidateInsights(ctx context.Context, tenantID int64) {
	s.cache.Invalidate(ctx, tenantID)
}

func (s *Service) isDemo(tenant models.Tenant) bool {
	if tenant.ShopDomain == nil || *tenant.ShopDomain == "" {
		return true
	}
	if tenant.AccessToken == nil || *tenant.AccessToken == "" {
		return true
	}
	// Seeded demo tenants carry a "-store-" marker in their API key.
	return strings.Contains(tenant.APIKey, "-store-")
}

func (s *Service) demoCounts(ctx context.Context, tenant models.Tenant) (SyncResult, error) {
	customers, err := s.store.Customers.Count(ctx, tenant.ID)
	if err != nil {
		return SyncResult{}, err
	}
	products, err := s.store.Products.Count(ctx, tenant.ID)
	if err != nil {
		return SyncResult{}, err
	}
	orders, err := s.store.Orders.Count(ctx, tenant.ID)
	if err != nil {
		return SyncResult{}, err
	}
	return SyncResult{
		Mode:      "demo",
		Customers: int(customers),
		Products:  int(products),
		Orders:    int(orders),
	}, nil
}
