package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mahesh-1-0/shopify-insights/internal/auth"
	"github.com/mahesh-1-0/shopify-insights/internal/config"
	"github.com/mahesh-1-0/shopify-insights/internal/database"
	"github.com/mahesh-1-0/shopify-insights/internal/models"
	"github.com/mahesh-1-0/shopify-insights/internal/storage"
)

type demoStore struct {
	name      string
	apiKey    string
	customers []demoCustomer
	products  []demoProduct
}

type demoCustomer struct {
	externalID  string
	firstName   string
	lastName    string
	email       string
	totalSpent  float64
	ordersCount int
}

type demoProduct struct {
	externalID string
	title      string
	vendor     string
	price      float64
}

func main() {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()

	if err := database.RunMigrations(ctx, cfg.Database); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	store := storage.NewStore(pool)

	for _, demo := range demoStores() {
		if err := seedStore(ctx, store, demo); err != nil {
			log.Fatalf("seed %s: %v", demo.name, err)
		}
		log.Printf("seeded %s (apiKey %s)", demo.name, demo.apiKey)
	}
}

func seedStore(ctx context.Context, store *storage.Store, demo demoStore) error {
	secret, err := auth.GenerateWebhookSecret()
	if err != nil {
		return fmt.Errorf("generate webhook secret: %w", err)
	}
	tenant, err := store.Tenants.Ensure(ctx, demo.name, demo.apiKey, secret)
	if err != nil {
		return err
	}

	customers := make([]models.Customer, 0, len(demo.customers))
	for _, c := range demo.customers {
		c := c
		stored, err := store.Customers.Upsert(ctx, models.Customer{
			TenantID:    tenant.ID,
			ExternalID:  c.externalID,
			Email:       &c.email,
			FirstName:   &c.firstName,
			LastName:    &c.lastName,
			TotalSpent:  c.totalSpent,
			OrdersCount: c.ordersCount,
		})
		if err != nil {
			return err
		}
		customers = append(customers, stored)
	}

	products := make([]models.Product, 0, len(demo.products))
	for _, p := range demo.products {
		p := p
		stored, err := store.Products.Upsert(ctx, models.Product{
			TenantID:   tenant.ID,
			ExternalID: p.externalID,
			Title:      p.title,
			Vendor:     &p.vendor,
			Price:      p.price,
		})
		if err != nil {
			return err
		}
		products = append(products, stored)
	}

	// A few paid orders per store, spread over the last days so windowed
	// queries have something to chew on.
	paid := "paid"
	fulfilled := "fulfilled"
	now := time.Now().UTC()
	for i := 0; i < 3 && i < len(customers); i++ {
		customer := customers[i]
		product := products[i%len(products)]
		_, err := store.Orders.Upsert(ctx, models.Order{
			TenantID:          tenant.ID,
			ExternalID:        fmt.Sprintf("%s_order_%d", demo.apiKey, i+1),
			CustomerID:        &customer.ID,
			Total:             round2(product.Price * 1.08),
			Currency:          "USD",
			FinancialStatus:   &paid,
			FulfillmentStatus: &fulfilled,
			CreatedAt:         now.Add(-time.Duration(i) * 24 * time.Hour),
		}, []int64{product.ID})
		if err != nil {
			return err
		}
	}

	eventTypes := []string{"cart_abandoned", "checkout_started"}
	for i, eventType := range eventTypes {
		customer := customers[i%len(customers)]
		product := products[i%len(products)]
		data, err := json.Marshal(map[string]any{
			"productId":    product.ID,
			"productTitle": product.Title,
		})
		if err != nil {
			return err
		}
		value := product.Price
		_, err = store.Events.Insert(ctx, models.CustomEvent{
			TenantID:   tenant.ID,
			CustomerID: &customer.ID,
			EventType:  eventType,
			EventData:  data,
			Value:      &value,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func demoStores() []demoStore {
	return []demoStore{
		{
			name:   "Fashion Forward Store",
			apiKey: "fashion-store-456",
			customers: []demoCustomer{
				{"fashion_cust_001", "Sarah", "Fashion", "sarah@fashion.com", 850.00, 4},
				{"fashion_cust_002", "Mike", "Style", "mike@fashion.com", 420.50, 2},
				{"fashion_cust_003", "Lisa", "Trendy", "lisa@fashion.com", 680.75, 3},
			},
			products: []demoProduct{
				{"fashion_prod_001", "Designer Dress", "Fashion Co", 89.99},
				{"fashion_prod_002", "Leather Jacket", "Fashion Co", 149.99},
				{"fashion_prod_003", "Sneakers", "Fashion Co", 79.99},
			},
		},
		{
			name:   "Tech Gadgets Hub",
			apiKey: "tech-store-789",
			customers: []demoCustomer{
				{"tech_cust_001", "Alex", "Tech", "alex@tech.com", 1200.00, 3},
				{"tech_cust_002", "Emma", "Gadget", "emma@tech.com", 750.25, 2},
				{"tech_cust_003", "David", "Geek", "david@tech.com", 950.50, 4},
			},
			products: []demoProduct{
				{"tech_prod_001", "Smartphone", "Tech Co", 699.99},
				{"tech_prod_002", "Laptop", "Tech Co", 1299.99},
				{"tech_prod_003", "Wireless Earbuds", "Tech Co", 199.99},
			},
		},
		{
			name:   "Home & Garden Co",
			apiKey: "home-store-101",
			customers: []demoCustomer{
				{"home_cust_001", "Maria", "Home", "maria@home.com", 320.00, 2},
				{"home_cust_002", "John", "Garden", "john@home.com", 180.75, 1},
				{"home_cust_003", "Anna", "Decor", "anna@home.com", 450.25, 3},
			},
			products: []demoProduct{
				{"home_prod_001", "Coffee Maker", "Home Co", 89.99},
				{"home_prod_002", "Throw Pillow", "Home Co", 24.99},
				{"home_prod_003", "Plant Pot", "Home Co", 19.99},
			},
		},
		{
			name:   "Sports & Fitness",
			apiKey: "sports-store-202",
			customers: []demoCustomer{
				{"sports_cust_001", "Tom", "Athlete", "tom@sports.com", 680.00, 3},
				{"sports_cust_002", "Lisa", "Fitness", "lisa@sports.com", 420.50, 2},
				{"sports_cust_003", "Chris", "Runner", "chris@sports.com", 350.75, 2},
			},
			products: []demoProduct{
				{"sports_prod_001", "Running Shoes", "Sports Co", 129.99},
				{"sports_prod_002", "Dumbbells Set", "Sports Co", 79.99},
				{"sports_prod_003", "Yoga Mat", "Sports Co", 39.99},
			},
		},
		{
			name:   "Beauty & Wellness",
			apiKey: "beauty-store-303",
			customers: []demoCustomer{
				{"beauty_cust_001", "Sophia", "Beauty", "sophia@beauty.com", 520.00, 3},
				{"beauty_cust_002", "Emma", "Glow", "emma@beauty.com", 280.25, 2},
				{"beauty_cust_003", "Maya", "Wellness", "maya@beauty.com", 380.50, 2},
			},
			products: []demoProduct{
				{"beauty_prod_001", "Face Cream", "Beauty Co", 49.99},
				{"beauty_prod_002", "Lipstick Set", "Beauty Co", 29.99},
				{"beauty_prod_003", "Essential Oils", "Beauty Co", 34.99},
			},
		},
	}
}
