package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahesh-1-0/shopify-insights/internal/models"
)

type ProductRepo struct {
	pool *pgxpool.Pool
}

const productColumns = `id, tenant_id, external_id, title, vendor, price, created_at, updated_at`

// Upsert inserts or refreshes a product keyed on (tenant, external id).
func (r *ProductRepo) Upsert(ctx context.Context, p models.Product) (models.Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (tenant_id, external_id, title, vendor, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			vendor = EXCLUDED.vendor,
			price = EXCLUDED.price,
			updated_at = now()
		RETURNING `+productColumns,
		p.TenantID, p.ExternalID, p.Title, p.Vendor, p.Price)
	stored, err := scanProduct(row)
	if err != nil {
		return models.Product{}, fmt.Errorf("upsert product: %w", err)
	}
	return stored, nil
}

func (r *ProductRepo) GetByExternalID(ctx context.Context, tenantID int64, externalID string) (models.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND external_id = $2`,
		tenantID, externalID)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, ErrNotFound
	}
	return p, err
}

func (r *ProductRepo) List(ctx context.Context, tenantID int64) ([]models.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Count returns the tenant's total product count, unwindowed.
func (r *ProductRepo) Count(ctx context.Context, tenantID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.TenantID, &p.ExternalID, &p.Title, &p.Vendor, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}
