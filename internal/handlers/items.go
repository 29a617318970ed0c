package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cookie-cutter-backend/internal/engine"
	"cookie-cutter-backend/internal/models"
)

type ItemsHandler struct {
	engine *engine.Engine
}

func NewItemsHandler(eng *engine.Engine) *ItemsHandler {
	return &ItemsHandler{engine: eng}
}

// AddItem godoc
// @Summary     Add an item to an order
// @Description Items need a measurement unless the type is STL Upload.
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.ItemPayload true "Item spec"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /orders/{order_id}/items [post]
func (h *ItemsHandler) AddItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}

	var payload models.ItemPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	order, err := h.engine.AddItem(c.Request.Context(), actor, orderID, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateItem godoc
// @Summary     Update an item
// @Tags        items
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       item_id path string true "Item ID (UUID)"
// @Param       request body models.UpdateItemRequest true "Fields to change"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /orders/{order_id}/items/{item_id} [put]
func (h *ItemsHandler) UpdateItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "item_id")
	if !ok {
		return
	}

	var patch models.UpdateItemRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	order, err := h.engine.UpdateItem(c.Request.Context(), actor, orderID, itemID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteItem godoc
// @Summary     Delete an item
// @Description Fails with CONFLICT when it is the order's last item.
// @Tags        items
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       item_id path string true "Item ID (UUID)"
// @Success     200 {object} models.Order
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/items/{item_id} [delete]
func (h *ItemsHandler) DeleteItem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "item_id")
	if !ok {
		return
	}

	order, err := h.engine.DeleteItem(c.Request.Context(), actor, orderID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
