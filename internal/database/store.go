// Package database persists Order aggregates in Postgres. Each order is a
// single row: indexed columns for lookups plus the whole aggregate as
// JSONB, written with an optimistic version check. The per-order lock in
// the engine serializes writers in-process; the version column catches
// anything that slips past it (a second server instance, a manual edit).
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"cookie-cutter-backend/internal/apperr"
	"cookie-cutter-backend/internal/models"
)

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(connectionString string) (*OrderStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &OrderStore{db: db}, nil
}

// NewOrderStoreWithDB wraps an existing connection, for tests.
func NewOrderStoreWithDB(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Close() error {
	return s.db.Close()
}

// writeRetries bounds how often a write is re-attempted when Postgres
// reports a transient failure (deadlock, serialization, lock timeout).
const writeRetries = 3

func (s *OrderStore) withRetry(ctx context.Context, fn func() error) error {
	backoff := 25 * time.Millisecond
	var err error
	for attempt := 0; attempt <= writeRetries; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", writeRetries, err)
}

func (s *OrderStore) Create(ctx context.Context, o *models.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	o.Version = 1
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO orders (id, order_number, baker_id, baker_email, stage, payload, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, o.ID, o.OrderNumber, o.BakerID, o.BakerEmail, string(o.Stage), payload, o.Version, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

func (s *OrderStore) Load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var payload []byte
	var version int64
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, version
		FROM orders
		WHERE id = $1
	`, id).Scan(&payload, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E(apperr.KindNotFound, "order %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	var o models.Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", id, err)
	}
	o.Version = version
	return &o, nil
}

// Save writes the whole aggregate back, guarded by the version the order
// was loaded at. Zero rows affected means a concurrent writer won.
func (s *OrderStore) Save(ctx context.Context, o *models.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	if err := s.withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE orders
			SET stage = $1, payload = $2, version = version + 1, updated_at = $3
			WHERE id = $4 AND version = $5
		`, string(o.Stage), payload, o.UpdatedAt, o.ID, o.Version)
		if err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return apperr.E(apperr.KindVersionConflict, "order %s was modified concurrently", o.ID)
		}
		return nil
	}); err != nil {
		return err
	}
	o.Version++
	return nil
}

func (s *OrderStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.E(apperr.KindNotFound, "order %s not found", id)
	}
	return nil
}

// List returns all orders for an admin, or only the baker's own.
func (s *OrderStore) List(ctx context.Context, actor models.Actor) ([]*models.Order, error) {
	query := `SELECT payload, version FROM orders ORDER BY created_at DESC`
	args := []interface{}{}
	if !actor.IsAdmin() {
		query = `SELECT payload, version FROM orders WHERE baker_id = $1 ORDER BY created_at DESC`
		args = append(args, actor.BakerID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var payload []byte
		var version int64
		if err := rows.Scan(&payload, &version); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		var o models.Order
		if err := json.Unmarshal(payload, &o); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		o.Version = version
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

