package insights

import (
	"context"
	"time"

	"github.com/mahesh-1-0/shopify-insights/internal/models"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
)

// storageStore adapts the SQL repositories to the aggregator's Store surface.
type storageStore struct {
	store *storage.Store
}

// NewStorageStore wraps the SQL store for use by the aggregator.
func NewStorageStore(store *storage.Store) Store {
	return &storageStore{store: store}
}

func (s *storageStore) CountCustomers(ctx context.Context, tenantID int64) (int64, error) {
	return s.store.Customers.Count(ctx, tenantID)
}

func (s *storageStore) CountProducts(ctx context.Context, tenantID int64) (int64, error) {
	return s.store.Products.Count(ctx, tenantID)
}

func (s *storageStore) CountOrders(ctx context.Context, tenantID int64, from, to time.Time) (int64, error) {
	return s.store.Orders.CountWindow(ctx, tenantID, from, to)
}

func (s *storageStore) SumOrderTotals(ctx context.Context, tenantID int64, from, to time.Time) (float64, error) {
	return s.store.Orders.SumTotals(ctx, tenantID, from, to)
}

func (s *storageStore) ListOrders(ctx context.Context, tenantID int64, from, to time.Time) ([]models.Order, error) {
	return s.store.Orders.ListWindow(ctx, tenantID, from, to)
}

func (s *storageStore) ListEvents(ctx context.Context, tenantID int64, from, to time.Time) ([]models.CustomEvent, error) {
	return s.store.Events.ListWindow(ctx, tenantID, from, to)
}
