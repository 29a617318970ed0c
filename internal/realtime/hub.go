// Package realtime fans order change events out to every client viewing
// the order (a room keyed by order id) and to the order-list channel.
// Delivery is best-effort: a slow or disconnected subscriber never blocks
// the mutation that produced the event. Clients that reconnect must
// refetch the order; no backlog is kept.
package realtime

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"cookie-cutter-backend/internal/models"
)

const (
	EventOrderCreated          = "order_created"
	EventStageChanged          = "stage_changed"
	EventItemAdded             = "item_added"
	EventItemUpdated           = "item_updated"
	EventItemDeleted           = "item_deleted"
	EventImageAdded            = "image_added"
	EventImageDeleted          = "image_deleted"
	EventCompletionUpdated     = "completion_updated"
	EventCompletionConfirmed   = "completion_confirmed"
	EventUpdateRequested       = "update_requested"
	EventUpdateRequestResolved = "update_request_resolved"
	EventOrderDeleted          = "order_deleted"
)

// OrderListRoom receives every event, for clients watching the order list.
const OrderListRoom = "order-list"

func OrderRoom(orderID uuid.UUID) string {
	return fmt.Sprintf("order:%s", orderID.String())
}

// Event is the envelope delivered to subscribers. UpdatedBy carries the
// acting identity so a client can suppress notifying itself while still
// applying the snapshot.
type Event struct {
	OrderID   uuid.UUID     `json:"order_id"`
	Type      string        `json:"event_type"`
	UpdatedBy string        `json:"updated_by"`
	Order     *models.Order `json:"order,omitempty"`
}

// subscriberBuffer bounds how far a slow reader can lag before events are
// dropped for it.
const subscriberBuffer = 16

type Subscription struct {
	hub *Hub
	ch  chan Event

	mu     sync.Mutex
	rooms  map[string]bool
	closed bool
}

// C is the event channel. It is closed when the subscription is closed.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Join adds the subscription to a room. Joining a room twice is a no-op.
func (s *Subscription) Join(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.rooms[room] {
		return
	}
	s.rooms[room] = true
	s.hub.join(room, s)
}

// Leave removes the subscription from a room. Leaving a room it is not in
// is a no-op.
func (s *Subscription) Leave(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.rooms[room] {
		return
	}
	delete(s.rooms, room)
	s.hub.leave(room, s)
}

func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for room := range s.rooms {
		s.hub.leave(room, s)
	}
	s.rooms = nil
	close(s.ch)
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Subscription]struct{})}
}

// Subscribe creates a subscription joined to the named rooms.
func (h *Hub) Subscribe(rooms ...string) *Subscription {
	s := &Subscription{
		hub:   h,
		ch:    make(chan Event, subscriberBuffer),
		rooms: make(map[string]bool),
	}
	for _, room := range rooms {
		s.Join(room)
	}
	return s
}

func (h *Hub) join(room string, s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.rooms[room] = subs
	}
	subs[s] = struct{}{}
}

func (h *Hub) leave(room string, s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[room]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish fans the event out to the order's room and the order-list room.
// A subscription in both rooms receives the event once. Sends never block;
// a full buffer means the event is dropped for that subscriber, which then
// resyncs by refetching.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Subscription]struct{})
	for _, room := range []string{OrderRoom(ev.OrderID), OrderListRoom} {
		for s := range h.rooms[room] {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			select {
			case s.ch <- ev:
			default:
			}
		}
	}
}
