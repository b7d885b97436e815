package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mahesh-1-0/shopify-insights/internal/cache"
	"github.com/mahesh-1-0/shopify-insights/internal/models"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
	"github.com/mahesh-1-0/shopify-insights/internal/timeutil"
)

var (
	ErrInvalidEvent = errors.New("invalid event")
	ErrInvalidQuery = errors.New("invalid event query")
)

// Store is the storage surface the event service depends on. Injected so
// tests can run against an in-memory double.
type Store interface {
	InsertEvent(ctx context.Context, event models.CustomEvent) (models.CustomEvent, error)
	CustomerByExternalID(ctx context.Context, tenantID int64, externalID string) (models.Customer, error)
	ListEvents(ctx context.Context, tenantID int64, filter storage.EventFilter) ([]models.CustomEvent, error)
}

// NewStorageStore adapts the SQL store to the Store surface.
func NewStorageStore(store *storage.Store) Store {
	return &storageStore{store: store}
}

type storageStore struct {
	store *storage.Store
}

func (s *storageStore) InsertEvent(ctx context.Context, event models.CustomEvent) (models.CustomEvent, error) {
	return s.store.Events.Insert(ctx, event)
}

func (s *storageStore) CustomerByExternalID(ctx context.Context, tenantID int64, externalID string) (models.Customer, error) {
	return s.store.Customers.GetByExternalID(ctx, tenantID, externalID)
}

func (s *storageStore) ListEvents(ctx context.Context, tenantID int64, filter storage.EventFilter) ([]models.CustomEvent, error) {
	return s.store.Events.List(ctx, tenantID, filter)
}

// Service records and lists tenant behavioral events.
type Service struct {
	store Store
	cache *cache.InsightsCache
	loc   *time.Location
	now   func() time.Time
}

func New(store Store, insightsCache *cache.InsightsCache, loc *time.Location) *Service {
	return &Service{
		store: store,
		cache: insightsCache,
		loc:   timeutil.EnsureLocation(loc),
		now:   time.Now,
	}
}

// CreateInput is the tenant-facing event payload.
type CreateInput struct {
	EventType          string          `json:"eventType"`
	CustomerExternalID string          `json:"customerId"`
	EventData          json.RawMessage `json:"eventData"`
	Value              *float64        `json:"value"`
}

// Create stores the event and invalidates the tenant's cached insights.
// A customer reference that does not resolve is dropped rather than
// rejected: events arrive from loosely-integrated sources.
func (s *Service) Create(ctx context.Context, tenantID int64, input CreateInput) (models.CustomEvent, error) {
	eventType := strings.TrimSpace(input.EventType)
	if eventType == "" {
		return models.CustomEvent{}, fmt.Errorf("%w: eventType is required", ErrInvalidEvent)
	}

	event := models.CustomEvent{
		TenantID:  tenantID,
		EventType: eventType,
		EventData: input.EventData,
		Value:     input.Value,
	}
	if externalID := strings.TrimSpace(input.CustomerExternalID); externalID != "" {
		customer, err := s.store.CustomerByExternalID(ctx, tenantID, externalID)
		if err == nil {
			event.CustomerID = &customer.ID
		} else if !errors.Is(err, storage.ErrNotFound) {
			return models.CustomEvent{}, err
		}
	}

	stored, err := s.store.InsertEvent(ctx, event)
	if err != nil {
		return models.CustomEvent{}, err
	}
	s.cache.Invalidate(ctx, tenantID)
	return stored, nil
}

// ListQuery carries the optional window and filters for a listing.
type ListQuery struct {
	From       string
	To         string
	EventType  string
	CustomerID string
	Limit      int
}

// List returns the tenant's events inside the resolved window, newest
// first, optionally narrowed by event type and customer id. The window
// shares the insights defaults: epoch start, end-of-day widened end.
func (s *Service) List(ctx context.Context, tenantID int64, q ListQuery) ([]models.CustomEvent, error) {
	win, err := timeutil.ResolveRange(q.From, q.To, s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	filter := storage.EventFilter{
		From:      win.From(),
		To:        win.To(),
		EventType: strings.TrimSpace(q.EventType),
		Limit:     q.Limit,
	}
	if raw := strings.TrimSpace(q.CustomerID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: customerId must be numeric", ErrInvalidQuery)
		}
		filter.CustomerID = &id
	}

	return s.store.ListEvents(ctx, tenantID, filter)
}
