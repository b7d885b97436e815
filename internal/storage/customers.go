package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahesh-1-0/shopify-insights/internal/models"
)

type CustomerRepo struct {
	pool *pgxpool.Pool
}

const customerColumns = `id, tenant_id, external_id, email, first_name, last_name, total_spent, orders_count, created_at, updated_at`

// Upsert inserts or refreshes a customer keyed on (tenant, external id).
func (r *CustomerRepo) Upsert(ctx context.Context, c models.Customer) (models.Customer, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (tenant_id, external_id, email, first_name, last_name, total_spent, orders_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			total_spent = EXCLUDED.total_spent,
			orders_count = EXCLUDED.orders_count,
			updated_at = now()
		RETURNING `+customerColumns,
		c.TenantID, c.ExternalID, c.Email, c.FirstName, c.LastName, c.TotalSpent, c.OrdersCount)
	stored, err := scanCustomer(row)
	if err != nil {
		return models.Customer{}, fmt.Errorf("upsert customer: %w", err)
	}
	return stored, nil
}

func (r *CustomerRepo) GetByExternalID(ctx context.Context, tenantID int64, externalID string) (models.Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE tenant_id = $1 AND external_id = $2`,
		tenantID, externalID)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Customer{}, ErrNotFound
	}
	return c, err
}

func (r *CustomerRepo) List(ctx context.Context, tenantID int64) ([]models.Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Count returns the tenant's total customer count. Customers are not
// time-scoped, so no window applies here.
func (r *CustomerRepo) Count(ctx context.Context, tenantID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return count, nil
}

func scanCustomer(row pgx.Row) (models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.ExternalID, &c.Email, &c.FirstName, &c.LastName,
		&c.TotalSpent, &c.OrdersCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Customer{}, err
	}
	return c, nil
}
