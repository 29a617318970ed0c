package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"cookie-cutter-backend/internal/engine"
	"cookie-cutter-backend/internal/models"
	"cookie-cutter-backend/internal/realtime"
)

type EventsHandler struct {
	engine *engine.Engine
	hub    *realtime.Hub
}

func NewEventsHandler(eng *engine.Engine, hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{engine: eng, hub: hub}
}

func sseHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
}

// StreamOrderEvents godoc
// @Summary     Subscribe to one order's change events
// @Description Server-sent events for a single order room. Envelopes carry updated_by so the client can skip notifying itself. After a reconnect the client must refetch the order; missed events are not replayed.
// @Tags        events
// @Produce     text/event-stream
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Router      /orders/{order_id}/events [get]
func (h *EventsHandler) StreamOrderEvents(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}

	// Visibility check doubles as existence check.
	if _, err := h.engine.GetOrder(c.Request.Context(), actor, orderID); err != nil {
		respondError(c, err)
		return
	}

	sub := h.hub.Subscribe(realtime.OrderRoom(orderID))
	defer sub.Close()

	sseHeaders(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-sub.C():
			if !open {
				return false
			}
			c.SSEvent("order_event", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// StreamOrderListEvents godoc
// @Summary     Subscribe to the order-list channel
// @Description Server-sent events for every order visible to the actor; bakers only receive events for their own orders.
// @Tags        events
// @Produce     text/event-stream
// @Security    Bearer
// @Router      /events/orders [get]
func (h *EventsHandler) StreamOrderListEvents(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	sub := h.hub.Subscribe(realtime.OrderListRoom)
	defer sub.Close()

	sseHeaders(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-sub.C():
			if !open {
				return false
			}
			if visibleTo(actor, ev) {
				c.SSEvent("order_event", ev)
			}
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func visibleTo(actor models.Actor, ev realtime.Event) bool {
	if actor.IsAdmin() {
		return true
	}
	return ev.Order != nil && ev.Order.BakerID == actor.BakerID
}
