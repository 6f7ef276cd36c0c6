package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"lucent-shop-api/internal/handler"
	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/internal/service"
	"lucent-shop-api/internal/ws"
	"lucent-shop-api/pkg/clock"
	"lucent-shop-api/pkg/config"
	"lucent-shop-api/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	// 2. Setup Database
	db := database.ConnectDB()
	// Schema changes beyond new columns go through a separate migration
	if err := db.AutoMigrate(
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.StockMovement{},
		&model.EventLog{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	samplesDir := filepath.Join(cfg.StorageDir, "samples")
	if err := os.MkdirAll(samplesDir, 0o755); err != nil {
		log.Fatalf("Failed to create storage directory: %v", err)
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	store := repository.NewStore(db)
	clk := clock.NewRealClock()
	pricing := service.Pricing{
		ShippingFee:           cfg.ShippingFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}
	events := service.NewEventLogger(store.Events(), wsHub)

	cartService := service.NewCartService(store, pricing)
	orderService := service.NewOrderService(store, events, service.NewOrderNumberGenerator(), pricing, clk)
	deliveryService := service.NewDeliveryService(store, service.NewURLSigner(cfg.PublicBaseURL, cfg.DownloadURLTTL, clk), events, clk)
	catalogService := service.NewCatalogService(store, events)
	sampleService := service.NewSampleService(store, service.NewExecRunner(), events, service.SampleConfig{
		FFmpegPath:    cfg.FFmpegPath,
		StorageDir:    cfg.StorageDir,
		PublicBaseURL: cfg.PublicBaseURL,
		Seconds:       int64(cfg.SampleSeconds),
		Timeout:       cfg.SampleTimeout,
	})
	dashService := service.NewDashboardService(store, clk)

	handlers := handler.Handlers{
		Cart:      handler.NewCartHandler(cartService),
		Order:     handler.NewOrderHandler(orderService, deliveryService, service.NewOrderExporter(store)),
		Catalog:   handler.NewCatalogHandler(catalogService, sampleService),
		Dashboard: handler.NewDashboardHandler(dashService),
		EventLog:  handler.NewEventLogHandler(events),
		Asset:     handler.NewAssetHandler(cfg.StorageDir),
		Hub:       wsHub,
	}

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Lucent Shop API v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// 6. Routes
	app.Static("/media/samples", samplesDir)
	handler.SetupRoutes(app, handlers)

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	wsHub.Stop()

	log.Println("Server exited")
}
