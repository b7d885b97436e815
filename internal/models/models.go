package models

import (
	"encoding/json"
	"time"
)

// Tenant is an isolated store account. Every record and every query is
// scoped by its id; the API key is the opaque credential dashboards use.
type Tenant struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	APIKey        string    `json:"apiKey"`
	ShopDomain    *string   `json:"shopDomain,omitempty"`
	AccessToken   *string   `json:"-"`
	WebhookSecret string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Customer struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"tenantId"`
	ExternalID  string    `json:"externalId"`
	Email       *string   `json:"email,omitempty"`
	FirstName   *string   `json:"firstName,omitempty"`
	LastName    *string   `json:"lastName,omitempty"`
	TotalSpent  float64   `json:"totalSpent"`
	OrdersCount int       `json:"ordersCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DisplayName returns the customer label used in rankings: full name when
// present, then email, then a synthetic label from the id.
func (c Customer) DisplayName() string {
	name := ""
	if c.FirstName != nil {
		name = *c.FirstName
	}
	if c.LastName != nil {
		if name != "" {
			name += " "
		}
		name += *c.LastName
	}
	if name != "" {
		return name
	}
	if c.Email != nil && *c.Email != "" {
		return *c.Email
	}
	return ""
}

type Product struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenantId"`
	ExternalID string    `json:"externalId"`
	Title      string    `json:"title"`
	Vendor     *string   `json:"vendor,omitempty"`
	Price      float64   `json:"price"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Order struct {
	ID                int64      `json:"id"`
	TenantID          int64      `json:"tenantId"`
	ExternalID        string     `json:"externalId"`
	CustomerID        *int64     `json:"customerId,omitempty"`
	Total             float64    `json:"total"`
	Currency          string     `json:"currency"`
	FinancialStatus   *string    `json:"financialStatus,omitempty"`
	FulfillmentStatus *string    `json:"fulfillmentStatus,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	ProcessedAt       *time.Time `json:"processedAt,omitempty"`
	Customer          *Customer  `json:"customer,omitempty"`
	ProductIDs        []int64    `json:"productIds,omitempty"`
	Products          []Product  `json:"products,omitempty"`
}

type CustomEvent struct {
	ID         int64           `json:"id"`
	TenantID   int64           `json:"tenantId"`
	CustomerID *int64          `json:"customerId,omitempty"`
	EventType  string          `json:"eventType"`
	EventData  json.RawMessage `json:"eventData,omitempty"`
	Value      *float64        `json:"value,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}
