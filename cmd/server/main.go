// @title           Cookie Cutter Orders API
// @version         1.0.0
// @description     Backend for a custom cookie-cutter order workflow: bakers submit orders with item specs and inspiration images, admins price and approve them, and all connected clients follow stage changes live.

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cookie-cutter-backend/internal/config"
	"cookie-cutter-backend/internal/database"
	"cookie-cutter-backend/internal/engine"
	"cookie-cutter-backend/internal/handlers"
	"cookie-cutter-backend/internal/middleware"
	"cookie-cutter-backend/internal/realtime"
	"cookie-cutter-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	log.Println("Migrations completed successfully")

	store, err := database.NewOrderStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize order store: %v", err)
	}
	defer store.Close()

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	hub := realtime.NewHub()
	eng := engine.New(store, hub)

	ordersHandler := handlers.NewOrdersHandler(eng, storageClient)
	itemsHandler := handlers.NewItemsHandler(eng)
	imagesHandler := handlers.NewImagesHandler(eng, storageClient)
	completionHandler := handlers.NewCompletionHandler(eng)
	eventsHandler := handlers.NewEventsHandler(eng, hub)

	router := gin.Default()
	handlers.RegisterRoutes(router, middleware.AuthMiddleware(cfg),
		ordersHandler, itemsHandler, imagesHandler, completionHandler, eventsHandler)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
