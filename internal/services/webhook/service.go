package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mahesh-1-0/shopify-insights/internal/models"
	"github.com/mahesh-1-0/shopify-insights/internal/shopify"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Ingestor is the record write surface deliveries are applied through.
// Satisfied by ingest.Service; injected so dispatch can be tested against
// a double.
type Ingestor interface {
	SyncCustomer(ctx context.Context, tenantID int64, payload shopify.CustomerPayload) (models.Customer, error)
	SyncProduct(ctx context.Context, tenantID int64, payload shopify.ProductPayload) (models.Product, error)
	SyncOrder(ctx context.Context, tenantID int64, payload shopify.OrderPayload) (models.Order, error)
	InvalidateInsights(ctx context.Context, tenantID int64)
}

// EventStore is the slice of storage the checkout branch needs.
type EventStore interface {
	CustomerByExternalID(ctx context.Context, tenantID int64, externalID string) (models.Customer, error)
	InsertEvent(ctx context.Context, event models.CustomEvent) (models.CustomEvent, error)
}

// Service verifies and applies storefront webhook deliveries. Record
// topics reuse the ingest upserts so webhook and sync writes stay
// byte-compatible; checkout topics become behavioral events.
type Service struct {
	store  EventStore
	ingest Ingestor
	logger *slog.Logger
}

func New(store EventStore, ingestSvc Ingestor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, ingest: ingestSvc, logger: logger}
}

// NewStorageEventStore adapts the SQL store to the EventStore surface.
func NewStorageEventStore(store *storage.Store) EventStore {
	return &storageEventStore{store: store}
}

type storageEventStore struct {
	store *storage.Store
}

func (s *storageEventStore) CustomerByExternalID(ctx context.Context, tenantID int64, externalID string) (models.Customer, error) {
	return s.store.Customers.GetByExternalID(ctx, tenantID, externalID)
}

func (s *storageEventStore) InsertEvent(ctx context.Context, event models.CustomEvent) (models.CustomEvent, error) {
	return s.store.Events.Insert(ctx, event)
}

// Verify checks the delivery's HMAC-SHA256 signature against the tenant's
// webhook secret.
func Verify(secret string, body []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// Process applies one verified delivery. Unknown topics are acknowledged
// and ignored so topic additions upstream never fail deliveries.
func (s *Service) Process(ctx context.Context, tenant models.Tenant, topic string, body []byte) error {
	group := topic
	if idx := strings.Index(topic, "/"); idx >= 0 {
		group = topic[:idx]
	}

	var err error
	switch group {
	case "customers":
		err = s.applyCustomer(ctx, tenant.ID, body)
	case "products":
		err = s.applyProduct(ctx, tenant.ID, body)
	case "orders":
		err = s.applyOrder(ctx, tenant.ID, body)
	case "checkouts":
		err = s.applyCheckout(ctx, tenant.ID, topic, body)
	default:
		s.logger.Debug("ignoring webhook topic", "tenant_id", tenant.ID, "topic", topic)
		return nil
	}
	if err != nil {
		return fmt.Errorf("process %s webhook: %w", topic, err)
	}

	s.ingest.InvalidateInsights(ctx, tenant.ID)
	return nil
}

func (s *Service) applyCustomer(ctx context.Context, tenantID int64, body []byte) error {
	var payload shopify.CustomerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode customer payload: %w", err)
	}
	_, err := s.ingest.SyncCustomer(ctx, tenantID, payload)
	return err
}

func (s *Service) applyProduct(ctx context.Context, tenantID int64, body []byte) error {
	var payload shopify.ProductPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode product payload: %w", err)
	}
	_, err := s.ingest.SyncProduct(ctx, tenantID, payload)
	return err
}

func (s *Service) applyOrder(ctx context.Context, tenantID int64, body []byte) error {
	var payload shopify.OrderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode order payload: %w", err)
	}
	_, err := s.ingest.SyncOrder(ctx, tenantID, payload)
	return err
}

// applyCheckout records checkout lifecycle events: every created checkout
// becomes a checkout_started event; an update carrying an abandoned
// checkout URL becomes a cart_abandoned event.
func (s *Service) applyCheckout(ctx context.Context, tenantID int64, topic string, body []byte) error {
	var payload struct {
		ID                   int64  `json:"id"`
		Token                string `json:"token"`
		TotalPrice           string `json:"total_price"`
		AbandonedCheckoutURL string `json:"abandoned_checkout_url"`
		Customer             *struct {
			ID int64 `json:"id"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode checkout payload: %w", err)
	}

	eventType := ""
	switch topic {
	case "checkouts/create":
		eventType = "checkout_started"
	case "checkouts/update":
		if payload.AbandonedCheckoutURL == "" {
			return nil
		}
		eventType = "cart_abandoned"
	default:
		return nil
	}

	event := models.CustomEvent{
		TenantID:  tenantID,
		EventType: eventType,
		EventData: body,
	}
	if total := parseValue(payload.TotalPrice); total != nil {
		event.Value = total
	}
	if payload.Customer != nil {
		customer, err := s.store.CustomerByExternalID(ctx, tenantID, strconv.FormatInt(payload.Customer.ID, 10))
		if err == nil {
			event.CustomerID = &customer.ID
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}

	_, err := s.store.InsertEvent(ctx, event)
	return err
}

// parseValue routes checkout totals through the same money parsing as
// every other storefront money field.
func parseValue(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v := shopify.ParseMoney(raw)
	return &v
}
