// Package testutil provides the in-memory Store used by engine and
// handler tests, mirroring the Postgres store's optimistic versioning.
package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"cookie-cutter-backend/internal/apperr"
	"cookie-cutter-backend/internal/models"
)

type MemStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func NewMemStore() *MemStore {
	return &MemStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (s *MemStore) Load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "order %s not found", id)
	}
	c := o.Clone()
	c.Version = o.Version
	return c, nil
}

func (s *MemStore) Create(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.Version = 1
	c := o.Clone()
	c.Version = 1
	s.orders[o.ID] = c
	return nil
}

func (s *MemStore) Save(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[o.ID]
	if !ok {
		return apperr.E(apperr.KindNotFound, "order %s not found", o.ID)
	}
	if stored.Version != o.Version {
		return apperr.E(apperr.KindVersionConflict, "order %s was modified concurrently", o.ID)
	}
	c := o.Clone()
	c.Version = o.Version + 1
	s.orders[o.ID] = c
	o.Version = c.Version
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return apperr.E(apperr.KindNotFound, "order %s not found", id)
	}
	delete(s.orders, id)
	return nil
}

func (s *MemStore) List(ctx context.Context, actor models.Actor) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Order
	for _, o := range s.orders {
		if actor.IsAdmin() || o.BakerID == actor.BakerID {
			c := o.Clone()
			c.Version = o.Version
			out = append(out, c)
		}
	}
	return out, nil
}

func Admin() models.Actor {
	return models.Actor{Role: models.RoleAdmin, Email: "admin@example.com"}
}

func Baker(id string) models.Actor {
	return models.Actor{Role: models.RoleBaker, BakerID: id, Email: id + "@example.com"}
}
