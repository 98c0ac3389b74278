package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/internal/archive"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/importer"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Wholesale Catalog API
// @version 1.0.0
// @description Bilingual wholesale catalog: bulk spreadsheet import and storefront reads

// @contact.name Catalog API Support
// @contact.email support@example.com

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.basic BasicAuth

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize catalog store
	var store repository.CatalogStore
	switch cfg.StoreBackend {
	case config.StoreBackendSupabase:
		supabaseRepo, err := repository.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			log.Fatal("Failed to create Supabase client: ", err)
		}
		store = supabaseRepo
		log.Println("✓ Supabase catalog store initialized")
	default:
		db, err := config.InitDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to database: ", err)
		}
		store = repository.NewCatalogRepository(db, newRedisClient(cfg)).WithLogger(logrus.NewEntry(logger))
		log.Println("✓ Postgres catalog store initialized")
	}

	// Initialize event publisher only if NATS_URL is set
	var publisher importer.ProductEventPublisher
	if cfg.NATSURL != "" {
		eventsPublisher, err := events.NewPublisher(cfg.NATSURL, cfg.StoreID, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			publisher = eventsPublisher
			defer eventsPublisher.Close()
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}

	// Initialize importer
	bulkImporter := importer.New(store, publisher, logrus.NewEntry(logger), importer.Config{
		MaxFileBytes: cfg.MaxUploadBytes(),
	})
	if cfg.ArchiveEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3Client, err := archive.NewS3Client(ctx, archive.S3Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.AWSEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Bucket:          cfg.ArchiveBucket,
			Prefix:          cfg.ArchivePrefix,
		})
		cancel()
		if err != nil {
			log.Printf("WARNING: Failed to initialize upload archive: %v (continuing without archiving)", err)
		} else {
			bulkImporter.WithArchiver(archive.NewS3Archive(s3Client, cfg.ArchiveBucket, cfg.ArchivePrefix))
			log.Printf("✓ Upload archive initialized (bucket %s)", cfg.ArchiveBucket)
		}
	}

	// Initialize handlers
	importHandler := handlers.NewImportHandler(bulkImporter, cfg.MaxUploadBytes(), logger)
	catalogHandler := handlers.NewCatalogHandler(store, handlers.PageLimits{
		Default: cfg.DefaultPageSize,
		Max:     cfg.MaxPageSize,
	}, logger)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	var err error
	if cfg.IsProduction() {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("catalog-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("catalog-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("wholesale", "catalog_service")
	log.Println("✓ Prometheus metrics initialized")

	if !cfg.IsProduction() && cfg.AdminPassword == "" {
		log.Println("WARNING: ADMIN_PASSWORD not set, admin routes are open (development mode)")
	}

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("catalog-service"))
	router.Use(gosharedmw.CompressionMiddleware())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck(store))
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api/v1")

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.AdminUsername, cfg.AdminPassword))
	{
		admin.POST("/products/bulk-import", importHandler.BulkImport)
		admin.GET("/products/bulk-template", importHandler.GetImportTemplate)
	}

	// Public storefront routes
	storefront := api.Group("/storefront")
	storefront.Use(middleware.Locale())
	{
		storefront.GET("/categories", catalogHandler.ListCategories)
		storefront.GET("/categories/:slug", catalogHandler.GetCategory)
		storefront.GET("/products", catalogHandler.ListProducts)
		storefront.GET("/products/:sku", catalogHandler.GetProduct)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down catalog-service...")

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

	log.Println("Catalog service stopped")
}

// newRedisClient connects the category and product cache. Caching is
// disabled when REDIS_URL is unset or the server does not answer.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, caching disabled")
		return nil
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (caching will be disabled)", err)
		return nil
	}
	// Set Redis password from GCP Secret Manager
	if password := secrets.GetRedisPassword(); password != "" {
		redisOpts.Password = password
	}
	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		redisClient.Close()
		return nil
	}
	log.Println("✓ Redis connected successfully")
	return redisClient
}
