package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahesh-1-0/shopify-insights/internal/models"
)

type OrderRepo struct {
	pool *pgxpool.Pool
}

const orderColumns = `id, tenant_id, external_id, customer_id, total, currency, financial_status, fulfillment_status, created_at, processed_at`

// Upsert inserts or refreshes an order keyed on (tenant, external id) and
// replaces its product links in the same transaction.
func (r *OrderRepo) Upsert(ctx context.Context, o models.Order, productIDs []int64) (models.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("begin order upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (tenant_id, external_id, customer_id, total, currency, financial_status, fulfillment_status, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			total = EXCLUDED.total,
			currency = EXCLUDED.currency,
			financial_status = EXCLUDED.financial_status,
			fulfillment_status = EXCLUDED.fulfillment_status,
			processed_at = EXCLUDED.processed_at
		RETURNING `+orderColumns,
		o.TenantID, o.ExternalID, o.CustomerID, o.Total, o.Currency,
		o.FinancialStatus, o.FulfillmentStatus, createdAt, o.ProcessedAt)
	stored, err := scanOrder(row)
	if err != nil {
		return models.Order{}, fmt.Errorf("upsert order: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_products WHERE order_id = $1`, stored.ID); err != nil {
		return models.Order{}, fmt.Errorf("clear order products: %w", err)
	}
	for _, productID := range productIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_products (order_id, product_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, stored.ID, productID); err != nil {
			return models.Order{}, fmt.Errorf("link order product: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("commit order upsert: %w", err)
	}
	stored.ProductIDs = productIDs
	return stored, nil
}

// ListWindow returns the tenant's orders inside [from, to] ascending by
// creation time, with the customer and product associations attached.
func (r *OrderRepo) ListWindow(ctx context.Context, tenantID int64, from, to time.Time) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE tenant_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at, id`, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	if err := r.attachCustomers(ctx, tenantID, orders); err != nil {
		return nil, err
	}
	if err := r.attachProducts(ctx, tenantID, from, to, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Count returns the tenant's total order count, unwindowed.
func (r *OrderRepo) Count(ctx context.Context, tenantID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// CountWindow returns how many orders fall inside [from, to].
func (r *OrderRepo) CountWindow(ctx context.Context, tenantID int64, from, to time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE tenant_id = $1 AND created_at BETWEEN $2 AND $3`,
		tenantID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// SumTotals returns the summed order totals inside [from, to].
func (r *OrderRepo) SumTotals(ctx context.Context, tenantID int64, from, to time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE tenant_id = $1 AND created_at BETWEEN $2 AND $3`,
		tenantID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum order totals: %w", err)
	}
	return total, nil
}

func (r *OrderRepo) attachCustomers(ctx context.Context, tenantID int64, orders []models.Order) error {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT c.id, c.tenant_id, c.external_id, c.email, c.first_name, c.last_name,
			c.total_spent, c.orders_count, c.created_at, c.updated_at
		FROM customers c
		JOIN orders o ON o.customer_id = c.id
		WHERE o.tenant_id = $1 AND c.tenant_id = $1`, tenantID)
	if err != nil {
		return fmt.Errorf("load order customers: %w", err)
	}
	defer rows.Close()

	byID := map[int64]models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range orders {
		if orders[i].CustomerID == nil {
			continue
		}
		if c, ok := byID[*orders[i].CustomerID]; ok {
			customer := c
			orders[i].Customer = &customer
		}
	}
	return nil
}

func (r *OrderRepo) attachProducts(ctx context.Context, tenantID int64, from, to time.Time, orders []models.Order) error {
	rows, err := r.pool.Query(ctx, `
		SELECT op.order_id, p.id, p.tenant_id, p.external_id, p.title, p.vendor, p.price, p.created_at, p.updated_at
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		JOIN orders o ON o.id = op.order_id
		WHERE o.tenant_id = $1 AND o.created_at BETWEEN $2 AND $3`, tenantID, from, to)
	if err != nil {
		return fmt.Errorf("load order products: %w", err)
	}
	defer rows.Close()

	byOrder := map[int64][]models.Product{}
	for rows.Next() {
		var orderID int64
		var p models.Product
		if err := rows.Scan(&orderID, &p.ID, &p.TenantID, &p.ExternalID, &p.Title, &p.Vendor,
			&p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		byOrder[orderID] = append(byOrder[orderID], p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range orders {
		products := byOrder[orders[i].ID]
		orders[i].Products = products
		ids := make([]int64, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		orders[i].ProductIDs = ids
	}
	return nil
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.TenantID, &o.ExternalID, &o.CustomerID, &o.Total, &o.Currency,
		&o.FinancialStatus, &o.FulfillmentStatus, &o.CreatedAt, &o.ProcessedAt)
	if err != nil {
		return models.Order{}, err
	}
	return o, nil
}
