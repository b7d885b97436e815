package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mahesh-1-0/shopify-insights/internal/config"
)

// Client is a thin wrapper over the storefront admin REST API. It only
// reads the collections the ingest path needs.
type Client struct {
	httpClient *http.Client
	apiVersion string
	pageLimit  int
}

func NewClient(cfg config.ShopifyConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiVersion: cfg.APIVersion,
		pageLimit:  250,
	}
}

type CustomerPayload struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TotalSpent  string `json:"total_spent"`
	OrdersCount int    `json:"orders_count"`
}

type ProductPayload struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Vendor   string `json:"vendor"`
	Variants []struct {
		Price string `json:"price"`
	} `json:"variants"`
}

// Price returns the first variant's price, or zero when no variant exists.
func (p ProductPayload) Price() float64 {
	if len(p.Variants) == 0 {
		return 0
	}
	return ParseMoney(p.Variants[0].Price)
}

type OrderPayload struct {
	ID                int64      `json:"id"`
	TotalPrice        string     `json:"total_price"`
	Currency          string     `json:"currency"`
	FinancialStatus   string     `json:"financial_status"`
	FulfillmentStatus string     `json:"fulfillment_status"`
	CreatedAt         time.Time  `json:"created_at"`
	ProcessedAt       *time.Time `json:"processed_at"`
	Customer          *struct {
		ID int64 `json:"id"`
	} `json:"customer"`
	LineItems []struct {
		ProductID *int64 `json:"product_id"`
	} `json:"line_items"`
}

type ShopInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"myshopify_domain"`
	Email  string `json:"email"`
}

// Customers fetches the store's customer list.
func (c *Client) Customers(ctx context.Context, shop, token string) ([]CustomerPayload, error) {
	var out struct {
		Customers []CustomerPayload `json:"customers"`
	}
	if err := c.get(ctx, shop, token, "customers.json", &out); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

// Products fetches the store's product list.
func (c *Client) Products(ctx context.Context, shop, token string) ([]ProductPayload, error) {
	var out struct {
		Products []ProductPayload `json:"products"`
	}
	if err := c.get(ctx, shop, token, "products.json", &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// Orders fetches the store's orders regardless of status.
func (c *Client) Orders(ctx context.Context, shop, token string) ([]OrderPayload, error) {
	var out struct {
		Orders []OrderPayload `json:"orders"`
	}
	if err := c.get(ctx, shop, token, "orders.json?status=any", &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// Shop fetches store metadata after an OAuth install.
func (c *Client) Shop(ctx context.Context, shop, token string) (ShopInfo, error) {
	var out struct {
		Shop ShopInfo `json:"shop"`
	}
	if err := c.get(ctx, shop, token, "shop.json", &out); err != nil {
		return ShopInfo{}, err
	}
	return out.Shop, nil
}

func (c *Client) get(ctx context.Context, shop, token, resource string, out any) error {
	sep := "?"
	for _, r := range resource {
		if r == '?' {
			sep = "&"
			break
		}
	}
	url := fmt.Sprintf("https://%s/admin/api/%s/%s%slimit=%d", shop, c.apiVersion, resource, sep, c.pageLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fetch %s: status %d: %s", resource, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", resource, err)
	}
	return nil
}

// ParseMoney converts the API's decimal money strings ("123.45") to a
// float64, tolerating empty and malformed values as zero.
func ParseMoney(value string) float64 {
	if value == "" {
		return 0
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
