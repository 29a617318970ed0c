package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cookie-cutter-backend/internal/engine"
	"cookie-cutter-backend/internal/models"
)

type OrdersHandler struct {
	engine        *engine.Engine
	storageClient BlobStore
}

func NewOrdersHandler(eng *engine.Engine, storageClient BlobStore) *OrdersHandler {
	return &OrdersHandler{
		engine:        eng,
		storageClient: storageClient,
	}
}

// CreateOrder godoc
// @Summary     Create a new order
// @Description Creates a Draft order owned by the authenticated baker, optionally with initial items.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateOrderRequest false "Initial items (optional)"
// @Success     201 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /orders [post]
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	// Body is optional; an empty order starts with no items.
	_ = c.ShouldBindJSON(&req)

	order, err := h.engine.CreateOrder(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders godoc
// @Summary     List orders
// @Description Admins see every order; bakers see their own.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.OrderListResponse
// @Router      /orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	orders, err := h.engine.ListOrders(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]models.OrderSummary, len(orders))
	for i, o := range orders {
		summaries[i] = models.NewOrderSummary(o)
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Orders: summaries})
}

// GetOrder godoc
// @Summary     Get order details
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.Order
// @Failure     404 {object} models.ErrorResponse
// @Router      /orders/{order_id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}

	order, err := h.engine.GetOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ChangeStage godoc
// @Summary     Request a stage change
// @Description Moves the order to the target stage if the stage graph allows it for this actor. A price must accompany the move into Requires Approval.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.StageChangeRequest true "Target stage, optional comments and price"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     412 {object} models.ErrorResponse
// @Failure     422 {object} models.ErrorResponse
// @Router      /orders/{order_id}/stage [put]
func (h *OrdersHandler) ChangeStage(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}

	var req models.StageChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	order, err := h.engine.ChangeStage(c.Request.Context(), actor, orderID,
		models.Stage(req.TargetStage), req.Comments, req.Price)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder godoc
// @Summary     Delete an order
// @Description Admins may delete at any stage; the owning baker only while the order is in Draft or Requested Changes. Stored files are removed best-effort.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} map[string]string "message"
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /orders/{order_id} [delete]
func (h *OrdersHandler) DeleteOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}

	if err := h.engine.DeleteOrder(c.Request.Context(), actor, orderID); err != nil {
		respondError(c, err)
		return
	}

	if h.storageClient != nil {
		if err := h.storageClient.DeleteOrderFiles(orderID); err != nil {
			log.Printf("Warning: failed to delete stored files for order %s: %v", orderID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "order deleted successfully"})
}
