package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mahesh-1-0/shopify-insights/internal/models"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
	"github.com/mahesh-1-0/shopify-insights/internal/timeutil"
)

type fakeStore struct {
	customers  map[string]models.Customer
	inserted   []models.CustomEvent
	lastFilter storage.EventFilter
	listResult []models.CustomEvent
}

func (f *fakeStore) InsertEvent(_ context.Context, event models.CustomEvent) (models.CustomEvent, error) {
	f.inserted = append(f.inserted, event)
	return event, nil
}

func (f *fakeStore) CustomerByExternalID(_ context.Context, _ int64, externalID string) (models.Customer, error) {
	customer, ok := f.customers[externalID]
	if !ok {
		return models.Customer{}, storage.ErrNotFound
	}
	return customer, nil
}

func (f *fakeStore) ListEvents(_ context.Context, _ int64, filter storage.EventFilter) ([]models.CustomEvent, error) {
	f.lastFilter = filter
	return f.listResult, nil
}

func newTestService() (*Service, *fakeStore) {
	store := &fakeStore{customers: map[string]models.Customer{}}
	svc := New(store, nil, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC) }
	return svc, store
}

func TestCreateRequiresEventType(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.Create(context.Background(), 1, CreateInput{EventType: "  "})
	require.True(t, errors.Is(err, ErrInvalidEvent))
	require.Empty(t, store.inserted)
}

func TestCreateResolvesCustomerTolerantly(t *testing.T) {
	svc, store := newTestService()
	store.customers["ext-9"] = models.Customer{ID: 9}

	event, err := svc.Create(context.Background(), 1, CreateInput{EventType: "product_viewed", CustomerExternalID: "ext-9"})
	require.NoError(t, err)
	require.NotNil(t, event.CustomerID)
	require.Equal(t, int64(9), *event.CustomerID)

	// Unknown references are dropped, not rejected.
	event, err = svc.Create(context.Background(), 1, CreateInput{EventType: "product_viewed", CustomerExternalID: "missing"})
	require.NoError(t, err)
	require.Nil(t, event.CustomerID)
}

func TestListAppliesWindowDefaults(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.List(context.Background(), 1, ListQuery{})
	require.NoError(t, err)

	require.Equal(t, timeutil.EarliestFrom, store.lastFilter.From)
	require.Equal(t, time.Date(2024, 7, 15, 23, 59, 59, 999000000, time.UTC), store.lastFilter.To)
	require.Empty(t, store.lastFilter.EventType)
	require.Nil(t, store.lastFilter.CustomerID)
}

func TestListPassesFilters(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.List(context.Background(), 1, ListQuery{
		From:       "2024-07-01",
		To:         "2024-07-10",
		EventType:  "cart_abandoned",
		CustomerID: "42",
		Limit:      25,
	})
	require.NoError(t, err)

	require.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), store.lastFilter.From)
	require.Equal(t, time.Date(2024, 7, 10, 23, 59, 59, 999000000, time.UTC), store.lastFilter.To)
	require.Equal(t, "cart_abandoned", store.lastFilter.EventType)
	require.NotNil(t, store.lastFilter.CustomerID)
	require.Equal(t, int64(42), *store.lastFilter.CustomerID)
	require.Equal(t, 25, store.lastFilter.Limit)
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.List(context.Background(), 1, ListQuery{From: "not-a-date"})
	require.True(t, errors.Is(err, timeutil.ErrInvalidRange))

	_, err = svc.List(context.Background(), 1, ListQuery{CustomerID: "abc"})
	require.True(t, errors.Is(err, ErrInvalidQuery))
}
