// Package engine is the orchestration layer every external call enters
// through. It serializes mutations per order, composes stage-graph and
// aggregate checks, persists the result, and is the single place that
// decides which realtime event to emit.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cookie-cutter-backend/internal/apperr"
	"cookie-cutter-backend/internal/models"
	"cookie-cutter-backend/internal/order"
	"cookie-cutter-backend/internal/realtime"
)

// Store is the persistence contract: load-by-id and save-whole-aggregate
// with an optimistic version check.
type Store interface {
	Load(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, o *models.Order) error
	Save(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, actor models.Actor) ([]*models.Order, error)
}

// Publisher receives one event per successful mutation. Delivery is
// decoupled from the authoritative write and must not fail it.
type Publisher interface {
	Publish(ev realtime.Event)
}

type Engine struct {
	store Store
	pub   Publisher
	locks *orderLocks
	now   func() time.Time
}

func New(store Store, pub Publisher) *Engine {
	return &Engine{
		store: store,
		pub:   pub,
		locks: newOrderLocks(),
		now:   time.Now,
	}
}

// WithClock overrides the engine clock, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) generateOrderNumber() string {
	return fmt.Sprintf("CCO-%d", e.now().UnixNano())
}

// CreateOrder opens a new Draft order for the acting baker, optionally
// with initial items.
func (e *Engine) CreateOrder(ctx context.Context, actor models.Actor, req models.CreateOrderRequest) (*models.Order, error) {
	now := e.now()
	o, err := order.NewDraft(actor, e.generateOrderNumber(), now)
	if err != nil {
		return nil, err
	}
	for _, payload := range req.Items {
		if err := order.AddItem(o, actor, payload, now); err != nil {
			return nil, err
		}
	}
	if err := e.store.Create(ctx, o); err != nil {
		return nil, err
	}
	e.emit(o, actor, realtime.EventOrderCreated)
	return o.Clone(), nil
}

// GetOrder loads an order visible to the actor.
func (e *Engine) GetOrder(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Order, error) {
	o, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(o) {
		// Hidden rather than forbidden: a baker cannot probe for other
		// bakers' order ids.
		return nil, apperr.E(apperr.KindNotFound, "order %s not found", id)
	}
	return o, nil
}

func (e *Engine) ListOrders(ctx context.Context, actor models.Actor) ([]*models.Order, error) {
	return e.store.List(ctx, actor)
}

// mutate runs fn against the order under its per-order lock and persists
// the result. The lock is held across load, mutate, and save so no second
// operation on the same order observes a half-applied state.
func (e *Engine) mutate(ctx context.Context, actor models.Actor, id uuid.UUID, eventType string, fn func(o *models.Order, now time.Time) error) (*models.Order, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	o, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(o) {
		return nil, apperr.E(apperr.KindNotFound, "order %s not found", id)
	}

	if err := fn(o, e.now()); err != nil {
		return nil, err
	}
	if err := e.store.Save(ctx, o); err != nil {
		return nil, err
	}
	e.emit(o, actor, eventType)
	return o.Clone(), nil
}

func (e *Engine) emit(o *models.Order, actor models.Actor, eventType string) {
	e.pub.Publish(realtime.Event{
		OrderID:   o.ID,
		Type:      eventType,
		UpdatedBy: actor.Email,
		Order:     o.Clone(),
	})
}

func (e *Engine) ChangeStage(ctx context.Context, actor models.Actor, id uuid.UUID, target models.Stage, comments string, price *decimal.Decimal) (*models.Order, error) {
	return e.mutate(ctx, actor, id, realtime.EventStageChanged, func(o *models.Order, now time.Time) error {
		return order.ChangeStage(o, actor, target, comments, price, now)
	})
}

func (e *Engine) AddItem(ctx context.Context, actor models.Actor, id uuid.UUID, payload models.ItemPayload) (*models.Order, error) {
	return e.mutate(ctx, actor, id, realtime.EventItemAdded, func(o *models.Order, now time.Time) error {
		return order.AddItem(o, actor, payload, now)
	})
}

func (e *Engine) UpdateItem(ctx context.Context, actor models.Actor, id, itemID uuid.UUID, patch models.UpdateItemRequest) (*models.Order, error) {
	return e.mutate(ctx, actor, id, realtime.EventItemUpdated, func(o *models.Order, now time.Time) error {
		return order.UpdateItem(o, actor, itemID, patch, now)
	})
}

func (e *Engine) DeleteItem(ctx context.Context, actor models.Actor, id, itemID uuid.UUID) (*models.Order, error) {
	return e.mutate(ctx, actor, id, realtime.EventItemDeleted, func(o *models.Order, now time.Time) error {
		return order.DeleteItem(o, actor, itemID, now)
	})
}

func (e *Engine) AddFile(ctx context.Context, actor models.Actor, id, itemID uuid.UUID, kind models.ImageKind, ref models.FileRef) (*models.Order, error) {
	return e.mutate(ctx, actor, id, realtime.EventImageAdded, func(o *models.Order, now time.Time) error {
		return order.AddFile(o, actor, itemID, kind, ref, now)
	})
}

func (e *Engine) DeleteFile(ctx context.Context, actor models.Actor, id, itemID uuid.UUID, kind models.ImageKind, key string) (*models.Order, error) {
	return e.mutate(ctx, actor, id, realtime.EventImageDeleted, func(o *models.Order, now time.Time) error {
		return order.DeleteFile(o, actor, itemID, kind, key, now)
	})
}

// SetCompletion returns the updated order and whether the baker must
// confirm the details.
func (e *Engine) SetCompletion(ctx context.Context, actor models.Actor, id uuid.UUID, req models.SetCompletionRequest) (*models.Order, bool, error) {
	var requiresConfirmation bool
	o, err := e.mutate(ctx, actor, id, realtime.EventCompletionUpdated, func(o *models.Order, now time.Time) error {
		var err error
		requiresConfirmation, err = order.SetCompletion(o, actor, req, now)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return o, requiresConfirmation, nil
}

func (e *Engine) ConfirmCompletion(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Order, error) {
	return e.mutate(ctx, actor, id, realtime.EventCompletionConfirmed, func(o *models.Order, now time.Time) error {
		return order.ConfirmCompletion(o, actor, now)
	})
}

func (e *Engine) RequestCompletionUpdate(ctx context.Context, actor models.Actor, id uuid.UUID, reason string) (*models.Order, error) {
	return e.mutate(ctx, actor, id, realtime.EventUpdateRequested, func(o *models.Order, now time.Time) error {
		return order.RequestUpdate(o, actor, reason, now)
	})
}

func (e *Engine) ResolveUpdateRequest(ctx context.Context, actor models.Actor, id uuid.UUID, action, adminResponse string) (*models.Order, error) {
	return e.mutate(ctx, actor, id, realtime.EventUpdateRequestResolved, func(o *models.Order, now time.Time) error {
		return order.ResolveUpdateRequest(o, actor, action, adminResponse, now)
	})
}

// DeleteOrder removes the order after the delete rule passes. The caller
// cleans up blob storage; a storage failure there must not resurrect the
// order.
func (e *Engine) DeleteOrder(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	unlock := e.locks.lock(id)
	defer unlock()

	o, err := e.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && !actor.Owns(o) {
		return apperr.E(apperr.KindNotFound, "order %s not found", id)
	}
	if err := order.AuthorizeDelete(o, actor); err != nil {
		return err
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.emit(o, actor, realtime.EventOrderDeleted)
	return nil
}
