package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"ainventory-service/internal/config"
	"ainventory-service/internal/events"
	"ainventory-service/internal/forecast"
	"ainventory-service/internal/handlers"
	"ainventory-service/internal/ingest"
	"ainventory-service/internal/middleware"
	"ainventory-service/internal/models"
	"ainventory-service/internal/repository"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.Warehouse{},
		&models.InventoryItem{},
		&models.Sale{},
		&models.Forecast{},
		&models.UploadJob{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize NATS event publisher (optional - graceful degradation if NATS unavailable)
	var alertPublisher *events.StockAlertPublisher
	if cfg.NATSURL != "" {
		alertPublisher, err = events.NewStockAlertPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("Warning: Failed to initialize NATS event publisher: %v", err)
			log.Println("Continuing without event publishing...")
		} else {
			log.Println("✓ Connected to NATS JetStream for event publishing")
			defer alertPublisher.Close()
		}
	} else {
		log.Println("NATS_URL not configured, event publishing disabled")
	}

	// Initialize Redis (optional - caching degrades to direct reads)
	redisClient, err := config.InitRedis(cfg)
	if err != nil {
		log.Fatal("Invalid Redis configuration:", err)
	}
	if redisClient != nil {
		log.Println("✓ Redis cache configured")
	}

	// Initialize repositories
	uploadRepo := repository.NewUploadRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db, redisClient)

	// Initialize ingestion pipeline
	var alerter ingest.StockAlerter
	if alertPublisher != nil {
		alerter = alertPublisher
	}
	processor := ingest.NewProcessor(db, uploadRepo, alerter, inventoryRepo, logger)
	dispatcher := ingest.NewDispatcher(processor, uploadRepo, cfg.ProcessTimeout, logger)

	// Initialize forecasting
	forecastService := forecast.NewService(inventoryRepo, forecast.NewExponentialSmoothing(),
		cfg.ForecastHorizonDays, cfg.ForecastMinHistory, logger)

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(cfg, uploadRepo, dispatcher, logger)
	templateHandler := handlers.NewTemplateHandler()
	catalogHandler := handlers.NewCatalogHandler(cfg, catalogRepo)
	inventoryHandler := handlers.NewInventoryHandler(cfg, inventoryRepo)
	forecastHandler := handlers.NewForecastHandler(inventoryRepo, forecastService)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("ainventory-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("ainventory-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("ainventory", "ainventory_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("ainventory-service"))

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadyCheck(db))
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api/v1")

	// Upload pipeline routes
	data := api.Group("/data")
	{
		data.POST("/upload", uploadHandler.UploadData)
		data.GET("/uploads", uploadHandler.ListUploads)
		data.GET("/uploads/:id", uploadHandler.GetUpload)
		data.POST("/uploads/:id/retry", uploadHandler.RetryUpload)
		data.DELETE("/uploads/:id", uploadHandler.DeleteUpload)
		data.GET("/templates/:kind", templateHandler.GetTemplate)
	}

	// Catalog routes
	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/categories", catalogHandler.ListCategories)
	api.GET("/brands", catalogHandler.ListBrands)

	// Inventory routes
	api.POST("/warehouses", inventoryHandler.CreateWarehouse)
	api.GET("/warehouses", inventoryHandler.ListWarehouses)
	api.GET("/inventory", inventoryHandler.ListInventory)
	api.GET("/sales", inventoryHandler.ListSales)

	// Forecast routes
	api.POST("/forecasts/generate", forecastHandler.GenerateForecasts)
	api.GET("/forecasts/:productId", forecastHandler.ListForecasts)
	api.GET("/forecasts/:productId/recommendation", forecastHandler.RecommendReorder)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("ainventory service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down ainventory-service...")

	// Let in-flight upload jobs finish before exiting
	done := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("✓ In-flight uploads drained")
	case <-time.After(30 * time.Second):
		log.Println("Timed out waiting for in-flight uploads")
	}

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}
}
