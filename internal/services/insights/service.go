package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mahesh-1-0/shopify-insights/internal/cache"
	"github.com/mahesh-1-0/shopify-insights/internal/models"
	"github.com/mahesh-1-0/shopify-insights/internal/timeutil"
)

// Store is the read-side storage surface the aggregator depends on. It is
// injected so tests can run against an in-memory double.
type Store interface {
	CountCustomers(ctx context.Context, tenantID int64) (int64, error)
	CountProducts(ctx context.Context, tenantID int64) (int64, error)
	CountOrders(ctx context.Context, tenantID int64, from, to time.Time) (int64, error)
	SumOrderTotals(ctx context.Context, tenantID int64, from, to time.Time) (float64, error)
	ListOrders(ctx context.Context, tenantID int64, from, to time.Time) ([]models.Order, error)
	ListEvents(ctx context.Context, tenantID int64, from, to time.Time) ([]models.CustomEvent, error)
}

const (
	topCustomerLimit = 5
	topProductLimit  = 10
)

// Overview is the full aggregation payload for one tenant and window.
type Overview struct {
	TotalCustomers    int64                   `json:"totalCustomers"`
	TotalOrders       int64                   `json:"totalOrders"`
	TotalRevenue      float64                 `json:"totalRevenue"`
	TotalProducts     int64                   `json:"totalProducts"`
	AverageOrderValue float64                 `json:"averageOrderValue"`
	RepeatCustomers   int64                   `json:"repeatCustomers"`
	RevenueGrowth     float64                 `json:"revenueGrowth"`
	OrdersByDate      []DateBucket            `json:"ordersByDate"`
	TopCustomers      []CustomerRank          `json:"topCustomers"`
	TopProducts       []ProductRank           `json:"topProducts"`
	CustomEvents      map[string]EventSummary `json:"customEvents"`
	Orders            []models.Order          `json:"orders"`
}

type DateBucket struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type CustomerRank struct {
	CustomerID  int64   `json:"customerId"`
	Name        string  `json:"name"`
	Total       float64 `json:"total"`
	OrdersCount int64   `json:"ordersCount"`
}

type ProductRank struct {
	ProductID int64   `json:"productId"`
	Title     string  `json:"title"`
	Revenue   float64 `json:"revenue"`
	Units     int64   `json:"units"`
}

type EventSummary struct {
	Count      int64   `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

// Service computes insight overviews. It never writes; tenant isolation
// comes from scoping every store call with the tenant id.
type Service struct {
	store  Store
	cache  *cache.InsightsCache
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

func New(store Store, insightsCache *cache.InsightsCache, loc *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		cache:  insightsCache,
		loc:    timeutil.EnsureLocation(loc),
		logger: logger,
		now:    time.Now,
	}
}

// Overview resolves the window and assembles the full payload. Every
// sub-computation shares the one resolved window and tenant scope.
func (s *Service) Overview(ctx context.Context, tenantID int64, from, to string) (Overview, error) {
	win, err := timeutil.ResolveRange(from, to, s.now(), s.loc)
	if err != nil {
		return Overview{}, err
	}

	if data, ok := s.cache.Get(ctx, tenantID, win.FromString(), win.ToString()); ok {
		var cached Overview
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	overview, err := s.compute(ctx, tenantID, win)
	if err != nil {
		s.logger.Error("insights computation failed",
			"tenant_id", tenantID,
			"from", win.FromString(),
			"to", win.ToString(),
			"error", err)
		return Overview{}, err
	}

	if data, err := json.Marshal(overview); err == nil {
		s.cache.Set(ctx, tenantID, win.FromString(), win.ToString(), data)
	}
	return overview, nil
}

func (s *Service) compute(ctx context.Context, tenantID int64, win timeutil.Window) (Overview, error) {
	from, to := win.Bounds()
	prev := win.Previous()

	var (
		totalCustomers  int64
		totalProducts   int64
		totalOrders     int64
		totalRevenue    float64
		previousRevenue float64
		orders          []models.Order
		events          []models.CustomEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalCustomers, err = s.store.CountCustomers(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		totalProducts, err = s.store.CountProducts(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		totalOrders, err = s.store.CountOrders(gctx, tenantID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		totalRevenue, err = s.store.SumOrderTotals(gctx, tenantID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		previousRevenue, err = s.store.SumOrderTotals(gctx, tenantID, prev.From(), prev.To())
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = s.store.ListOrders(gctx, tenantID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.store.ListEvents(gctx, tenantID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("aggregate insights: %w", err)
	}

	overview := Overview{
		TotalCustomers:  totalCustomers,
		TotalOrders:     totalOrders,
		TotalRevenue:    totalRevenue,
		TotalProducts:   totalProducts,
		RepeatCustomers: countRepeatCustomers(orders),
		RevenueGrowth:   revenueGrowth(totalRevenue, previousRevenue),
		OrdersByDate:    bucketOrdersByDate(orders, win.Location()),
		TopCustomers:    rankCustomers(orders),
		TopProducts:     rankProducts(orders),
		CustomEvents:    summarizeEvents(events),
		Orders:          orders,
	}
	if totalOrders > 0 {
		overview.AverageOrderValue = totalRevenue / float64(totalOrders)
	}
	return overview, nil
}

// countRepeatCustomers counts distinct customers with two or more orders
// inside the window. Orders without a customer never qualify.
func countRepeatCustomers(orders []models.Order) int64 {
	perCustomer := map[int64]int{}
	for _, o := range orders {
		if o.CustomerID == nil {
			continue
		}
		perCustomer[*o.CustomerID]++
	}
	var repeat int64
	for _, n := range perCustomer {
		if n > 1 {
			repeat++
		}
	}
	return repeat
}

// revenueGrowth is the percentage change against the preceding window,
// reported as 0 when there was no prior revenue, rounded to two decimals.
func revenueGrowth(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return math.Round((current-previous)/previous*100*100) / 100
}

// bucketOrdersByDate sums order totals per calendar day. Days without
// orders are omitted; the output is ascending by date.
func bucketOrdersByDate(orders []models.Order, loc *time.Location) []DateBucket {
	totals := map[string]float64{}
	for _, o := range orders {
		totals[timeutil.DayKey(o.CreatedAt, loc)] += o.Total
	}

	buckets := make([]DateBucket, 0, len(totals))
	for date, total := range totals {
		buckets = append(buckets, DateBucket{Date: date, Total: total})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date < buckets[j].Date })
	return buckets
}

func rankCustomers(orders []models.Order) []CustomerRank {
	byCustomer := map[int64]*CustomerRank{}
	for _, o := range orders {
		if o.CustomerID == nil {
			continue
		}
		id := *o.CustomerID
		rank, ok := byCustomer[id]
		if !ok {
			rank = &CustomerRank{CustomerID: id, Name: customerLabel(id, o.Customer)}
			byCustomer[id] = rank
		}
		rank.Total += o.Total
		rank.OrdersCount++
	}

	ranks := make([]CustomerRank, 0, len(byCustomer))
	for _, rank := range byCustomer {
		ranks = append(ranks, *rank)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Total != ranks[j].Total {
			return ranks[i].Total > ranks[j].Total
		}
		return ranks[i].CustomerID < ranks[j].CustomerID
	})
	if len(ranks) > topCustomerLimit {
		ranks = ranks[:topCustomerLimit]
	}
	return ranks
}

// rankProducts splits each order's total evenly across its products and
// counts one unit per containing order. Orders with no products still
// count toward revenue elsewhere but have nothing to attribute here.
func rankProducts(orders []models.Order) []ProductRank {
	byProduct := map[int64]*ProductRank{}
	for _, o := range orders {
		if len(o.Products) == 0 {
			continue
		}
		share := o.Total / float64(len(o.Products))
		for _, p := range o.Products {
			rank, ok := byProduct[p.ID]
			if !ok {
				rank = &ProductRank{ProductID: p.ID, Title: p.Title}
				byProduct[p.ID] = rank
			}
			rank.Revenue += share
			rank.Units++
		}
	}

	ranks := make([]ProductRank, 0, len(byProduct))
	for _, rank := range byProduct {
		ranks = append(ranks, *rank)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Revenue != ranks[j].Revenue {
			return ranks[i].Revenue > ranks[j].Revenue
		}
		return ranks[i].ProductID < ranks[j].ProductID
	})
	if len(ranks) > topProductLimit {
		ranks = ranks[:topProductLimit]
	}
	return ranks
}

func summarizeEvents(events []models.CustomEvent) map[string]EventSummary {
	summary := map[string]EventSummary{}
	for _, e := range events {
		entry := summary[e.EventType]
		entry.Count++
		if e.Value != nil {
			entry.TotalValue += *e.Value
		}
		summary[e.EventType] = entry
	}
	return summary
}

func customerLabel(id int64, customer *models.Customer) string {
	if customer != nil {
		if name := customer.DisplayName(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Customer %d", id)
}
