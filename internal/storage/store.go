package storage

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrTenantNotFound is returned when an API key or id resolves to no tenant.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrNotFound is returned for lookups of missing non-tenant records.
	ErrNotFound = errors.New("record not found")
)

// Store bundles the per-entity repositories over one connection pool.
// Every query is scoped by tenant id; nothing here crosses tenants.
type Store struct {
	Tenants   *TenantRepo
	Customers *CustomerRepo
	Products  *ProductRepo
	Orders    *OrderRepo
	Events    *EventRepo
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Tenants:   &TenantRepo{pool: pool},
		Customers: &CustomerRepo{pool: pool},
		Products:  &ProductRepo{pool: pool},
		Orders:    &OrderRepo{pool: pool},
		Events:    &EventRepo{pool: pool},
	}
}
