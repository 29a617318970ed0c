package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the health probe and the authenticated /api/v1
// surface. auth runs before every /api/v1 handler; tests substitute it to
// inject an actor directly.
func RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc, orders *OrdersHandler, items *ItemsHandler, images *ImagesHandler, completion *CompletionHandler, events *EventsHandler) {
	// Health check (no auth)
	router.GET("/health", HealthHandler)

	api := router.Group("/api/v1")
	api.Use(auth)

	// Orders
	api.POST("/orders", orders.CreateOrder)
	api.GET("/orders", orders.ListOrders)
	api.GET("/orders/:order_id", orders.GetOrder)
	api.DELETE("/orders/:order_id", orders.DeleteOrder)
	api.PUT("/orders/:order_id/stage", orders.ChangeStage)

	// Items
	api.POST("/orders/:order_id/items", items.AddItem)
	api.PUT("/orders/:order_id/items/:item_id", items.UpdateItem)
	api.DELETE("/orders/:order_id/items/:item_id", items.DeleteItem)

	// Images and STL files
	api.POST("/orders/:order_id/items/:item_id/images/:kind", images.Upload)
	api.DELETE("/orders/:order_id/items/:item_id/images/:kind/*key", images.DeleteImage)

	// Completion sub-workflow
	api.PUT("/orders/:order_id/completion", completion.SetCompletion)
	api.POST("/orders/:order_id/completion/confirm", completion.ConfirmCompletion)
	api.POST("/orders/:order_id/completion/update-request", completion.RequestUpdate)
	api.POST("/orders/:order_id/completion/update-request/resolve", completion.ResolveUpdateRequest)

	// Live updates. The order-list stream lives under /events because
	// gin's router cannot register a static segment beside :order_id.
	api.GET("/events/orders", events.StreamOrderListEvents)
	api.GET("/orders/:order_id/events", events.StreamOrderEvents)
}
