package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahesh-1-0/shopify-insights/internal/models"
)

type TenantRepo struct {
	pool *pgxpool.Pool
}

const tenantColumns = `id, name, api_key, shop_domain, access_token, webhook_secret, created_at, updated_at`

// GetByAPIKey resolves the opaque dashboard credential to a tenant.
func (r *TenantRepo) GetByAPIKey(ctx context.Context, apiKey string) (models.Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE api_key = $1`, apiKey)
	return scanTenant(row)
}

func (r *TenantRepo) GetByID(ctx context.Context, id int64) (models.Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

func (r *TenantRepo) GetByShopDomain(ctx context.Context, shopDomain string) (models.Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE shop_domain = $1`, shopDomain)
	return scanTenant(row)
}

// Create inserts a new tenant and returns it with its generated id.
func (r *TenantRepo) Create(ctx context.Context, t models.Tenant) (models.Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tenants (name, api_key, shop_domain, access_token, webhook_secret)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+tenantColumns,
		t.Name, t.APIKey, t.ShopDomain, t.AccessToken, t.WebhookSecret)
	created, err := scanTenant(row)
	if err != nil {
		return models.Tenant{}, fmt.Errorf("create tenant: %w", err)
	}
	return created, nil
}

// UpdateConnection refreshes the storefront credentials after an OAuth install.
func (r *TenantRepo) UpdateConnection(ctx context.Context, id int64, name string, accessToken *string) (models.Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tenants
		SET name = $2, access_token = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+tenantColumns,
		id, name, accessToken)
	return scanTenant(row)
}

func (r *TenantRepo) List(ctx context.Context) ([]models.Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// Ensure creates the named tenant if no tenant holds the given API key yet.
// Used by the bootstrap path for demo tenants; existing rows win.
func (r *TenantRepo) Ensure(ctx context.Context, name, apiKey, webhookSecret string) (models.Tenant, error) {
	existing, err := r.GetByAPIKey(ctx, apiKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrTenantNotFound) {
		return models.Tenant{}, err
	}
	return r.Create(ctx, models.Tenant{Name: name, APIKey: apiKey, WebhookSecret: webhookSecret})
}

func scanTenant(row pgx.Row) (models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.APIKey, &t.ShopDomain, &t.AccessToken, &t.WebhookSecret, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Tenant{}, ErrTenantNotFound
	}
	if err != nil {
		return models.Tenant{}, fmt.Errorf("scan tenant: %w", err)
	}
	return t, nil
}
