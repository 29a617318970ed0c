package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cookie-cutter-backend/internal/engine"
	"cookie-cutter-backend/internal/models"
)

type CompletionHandler struct {
	engine *engine.Engine
}

func NewCompletionHandler(eng *engine.Engine) *CompletionHandler {
	return &CompletionHandler{engine: eng}
}

// SetCompletion godoc
// @Summary     Set delivery and payment details
// @Description Captures the delivery/pickup method, payment method, and schedule or address for a Completed order. Locked once confirmed, unless an approved update request exists.
// @Tags        completion
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.SetCompletionRequest true "Completion details"
// @Success     200 {object} models.CompletionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     412 {object} models.ErrorResponse
// @Failure     423 {object} models.ErrorResponse
// @Router      /orders/{order_id}/completion [put]
func (h *CompletionHandler) SetCompletion(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}

	var req models.SetCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	order, requiresConfirmation, err := h.engine.SetCompletion(c.Request.Context(), actor, orderID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CompletionResponse{
		Order:                order,
		RequiresConfirmation: requiresConfirmation,
	})
}

// ConfirmCompletion godoc
// @Summary     Confirm completion details
// @Description Locks the delivery/payment details against further edits.
// @Tags        completion
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.Order
// @Failure     412 {object} models.ErrorResponse
// @Router      /orders/{order_id}/completion/confirm [post]
func (h *CompletionHandler) ConfirmCompletion(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}

	order, err := h.engine.ConfirmCompletion(c.Request.Context(), actor, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// RequestUpdate godoc
// @Summary     Request an update to confirmed details
// @Tags        completion
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.CompletionUpdateRequest true "Reason for the change"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     412 {object} models.ErrorResponse
// @Router      /orders/{order_id}/completion/update-request [post]
func (h *CompletionHandler) RequestUpdate(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}

	var req models.CompletionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	order, err := h.engine.RequestCompletionUpdate(c.Request.Context(), actor, orderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ResolveUpdateRequest godoc
// @Summary     Approve or reject a pending update request
// @Description Approving lets the baker call set-completion once more; rejecting requires a response the baker will see.
// @Tags        completion
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.ResolveUpdateRequestRequest true "approve or reject, with optional response"
// @Success     200 {object} models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     412 {object} models.ErrorResponse
// @Router      /orders/{order_id}/completion/update-request/resolve [post]
func (h *CompletionHandler) ResolveUpdateRequest(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}

	var req models.ResolveUpdateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	order, err := h.engine.ResolveUpdateRequest(c.Request.Context(), actor, orderID, req.Action, req.AdminResponse)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
