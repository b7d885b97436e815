package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahesh-1-0/shopify-insights/internal/models"
)

type EventRepo struct {
	pool *pgxpool.Pool
}

const eventColumns = `id, tenant_id, customer_id, event_type, event_data, value, created_at`

// Insert records a behavioral event. Events are append-only.
func (r *EventRepo) Insert(ctx context.Context, e models.CustomEvent) (models.CustomEvent, error) {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO custom_events (tenant_id, customer_id, event_type, event_data, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+eventColumns,
		e.TenantID, e.CustomerID, e.EventType, e.EventData, e.Value, createdAt)
	stored, err := scanEvent(row)
	if err != nil {
		return models.CustomEvent{}, fmt.Errorf("insert event: %w", err)
	}
	return stored, nil
}

// ListWindow returns the tenant's events inside [from, to].
func (r *EventRepo) ListWindow(ctx context.Context, tenantID int64, from, to time.Time) ([]models.CustomEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM custom_events
		WHERE tenant_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at, id`, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []models.CustomEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// EventFilter scopes a listing to a window plus optional event-type and
// customer constraints.
type EventFilter struct {
	From       time.Time
	To         time.Time
	EventType  string
	CustomerID *int64
	Limit      int
}

// List returns the tenant's events matching the filter, newest first.
func (r *EventRepo) List(ctx context.Context, tenantID int64, f EventFilter) ([]models.CustomEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM custom_events WHERE tenant_id = $1 AND created_at BETWEEN $2 AND $3`
	args := []any{tenantID, f.From, f.To}

	if f.EventType != "" {
		args = append(args, f.EventType)
		query += fmt.Sprintf(" AND event_type = $%d", len(args))
	}
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []models.CustomEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (models.CustomEvent, error) {
	var e models.CustomEvent
	err := row.Scan(&e.ID, &e.TenantID, &e.CustomerID, &e.EventType, &e.EventData, &e.Value, &e.CreatedAt)
	if err != nil {
		return models.CustomEvent{}, err
	}
	return e, nil
}
