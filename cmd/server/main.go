package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	provapp "github.com/jrobgood/fineract-poc/internal/application/provisioning"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/auth"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/cache"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/config"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/logger"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/persistence"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/telemetry"
	"github.com/jrobgood/fineract-poc/internal/interfaces/http/handler"
	"github.com/jrobgood/fineract-poc/internal/interfaces/http/middleware"
	"github.com/jrobgood/fineract-poc/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting provisioning criteria service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	criteriaRepo := persistence.NewGormCriteriaRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	glAccountRepo := persistence.NewGormGLAccountRepository(db.DB)
	loanProductRepo := persistence.NewGormLoanProductRepository(db.DB)
	entriesLookup := persistence.NewGormEntriesLookup(db.DB)

	// Initialize application services
	assembler := provapp.NewCriteriaAssembler(categoryRepo, glAccountRepo, loanProductRepo)
	criteriaService := provapp.NewCriteriaService(criteriaRepo, entriesLookup, assembler, log)
	categoryService := provapp.NewCategoryService(categoryRepo, log)
	templateService := provapp.NewTemplateService(categoryRepo, criteriaRepo, glAccountRepo, loanProductRepo)

	// JWT service for bearer-token authentication on mutating endpoints
	jwtService := auth.NewJWTService(cfg.JWT)

	// Idempotency store: Redis when reachable, in-memory otherwise. The
	// in-memory fallback keeps single-instance deployments working without
	// a Redis dependency.
	var idempotencyStore cache.IdempotencyStore
	if redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = redisStore
		log.Info("Redis idempotency store connected",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	criteriaHandler := handler.NewCriteriaHandler(criteriaService, templateService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. Tracing - OpenTelemetry spans per request
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Tracing middleware (no-op spans when telemetry is disabled)
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())

	// Health check endpoint (outside API versioning, unauthenticated)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes.
	// Read-only system endpoints stay public.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Idempotency replay protection for mutating requests
	r.Use(middleware.IdempotencyWithConfig(middleware.IdempotencyConfig{
		Store:  idempotencyStore,
		TTL:    24 * time.Hour,
		Logger: log,
	}))

	// Provisioning domain (criteria, categories)
	provisioningRoutes := router.NewDomainGroup("provisioning", "/provisioning")

	// Criteria routes. The template route is registered before /:id so the
	// literal segment wins over the parameter.
	provisioningRoutes.POST("/criteria", criteriaHandler.Create)
	provisioningRoutes.GET("/criteria", criteriaHandler.List)
	provisioningRoutes.GET("/criteria/template", criteriaHandler.Template)
	provisioningRoutes.GET("/criteria/:id", criteriaHandler.GetByID)
	provisioningRoutes.PUT("/criteria/:id", criteriaHandler.Update)
	provisioningRoutes.DELETE("/criteria/:id", criteriaHandler.Delete)

	// Category routes
	provisioningRoutes.POST("/categories", categoryHandler.Create)
	provisioningRoutes.GET("/categories", categoryHandler.List)
	provisioningRoutes.PUT("/categories/:id", categoryHandler.Update)
	provisioningRoutes.DELETE("/categories/:id", categoryHandler.Delete)

	// System domain (info, ping)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(provisioningRoutes).Register(systemRoutes)
	r.Setup()

	// Configure HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
